// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidTerm indicates a Term failed validation.
	ErrInvalidTerm = errors.New("invalid term")

	// ErrEmptyCode indicates the Code field is empty.
	ErrEmptyCode = errors.New("LOINC code cannot be empty")

	// ErrEmptyName indicates the LongCommonName field is empty.
	ErrEmptyName = errors.New("long common name cannot be empty")

	// ErrEmptyComponent indicates the Component field is empty.
	ErrEmptyComponent = errors.New("component cannot be empty")

	// ErrEmptyVector indicates a Point carries no embedding vector.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
