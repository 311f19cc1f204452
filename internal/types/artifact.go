package types

// Artifact is an exported result list frozen into a PDF document.
// The JSON shape is the persisted archive entry format.
type Artifact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
	// Data is a self-contained data URI holding the PDF.
	Data string `json:"data"`
}

// ShareText is the descriptive text attached when sharing the artifact.
func (a Artifact) ShareText() string {
	return "Preisvergleichs-PDF: " + a.Name
}
