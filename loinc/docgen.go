package loinc

import (
	"fmt"

	"github.com/poiesic/loincvec/core"
)

// DocFileName returns the output filename for a term's documentation chunk.
func DocFileName(code string) string {
	return code + ".loinc-chunk.md"
}

// RenderDoc renders the ten-block markdown documentation chunk for a term.
// Blocks without source data keep their headings with empty values so the
// chunk layout stays uniform across terms.
func RenderDoc(t *core.Term) string {
	return fmt.Sprintf(`
# LOINC Code: %[1]s

## Block 1: Primary Code Identification
LOINC Code: %[1]s
Long Common Name: %[2]s
Short Name: %[3]s
Display Name: %[2]s
Status: %[4]s

## Block 2: Clinical Terminology and Classification
Component: %[5]s
Property: %[6]s
Time Aspect: %[7]s
System: %[8]s
Scale Type: %[9]s
Method Type: %[10]s
Class: %[11]s

## Block 3: Technical Definition and Measurement
Definition: %[2]s
Measurement Type: %[6]s
Units:
Normal Range:
Calculation:

## Block 4: Clinical Context and Applications
Clinical Use:
Associated Conditions:
Clinical Significance:
Diagnostic Applications:
Panel Associations:

## Block 5: Related Laboratory Tests
Panel Members:
Related LOINC Codes:
Commonly Ordered With:
Workflow Relationships:

## Block 6: Synonyms and Alternative Names
Synonyms:
Abbreviations:
Legacy Terms:
International Variants:
Common Names:

## Block 7: Specimen and Collection Information
Specimen Type: %[8]s
Collection Method:
Container:
Stability:
Special Instructions:

## Block 8: Quality and Standardization
Method Standardization:
Quality Control:
Analytical Variables:
Precision:
Interference:

## Block 9: Regulatory and Administrative
Copyright: %[12]s
Version Information:
Usage Rights:
Mapping Standards:
System Integration:

## Block 10: Cross-References and External Mappings
SNOMED CT:
ICD Codes:
CPT Codes:
UCUM Units:
External IDs:
`,
		t.Code, t.LongCommonName, t.ShortName, t.Status,
		t.Component, t.Property, t.TimeAspect, t.System, t.Scale, t.Method, t.Class,
		t.Copyright)
}
