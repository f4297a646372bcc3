package s3util

import "net/url"

// projectName is the Project cost-allocation tag value.
const projectName = "memories-download"

// RunTagging returns the URL-encoded object tagging string for objects
// uploaded by one run. Use as the Tagging field on PutObjectInput.
func RunTagging(runID string) *string {
	v := url.Values{}
	v.Set("Project", projectName)
	if runID != "" {
		v.Set("RunId", runID)
	}
	t := v.Encode()
	return &t
}
