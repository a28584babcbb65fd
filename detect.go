package urp

// DetectFormat decides which wire format text is in. Marker wins on any
// FILE opener, or on a PLAN and an EXPLANATION block together; everything
// else is treated as a bare object.
func DetectFormat(text string) Format {
	if fileOpenRe.MatchString(text) {
		return FormatMarker
	}
	if hasBlockOpener(text, blockPlan) && hasBlockOpener(text, blockExplanation) {
		return FormatMarker
	}
	return FormatJSON
}
