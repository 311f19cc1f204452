package types

import "errors"

var (
	// ErrConfiguration is fatal and reported at startup: no API credential.
	ErrConfiguration = errors.New("configuration error")
	// ErrRequest covers transport failures and responses that violate the schema.
	ErrRequest = errors.New("request error")
	// ErrComposition means there was nothing to export or the view could not be captured.
	ErrComposition = errors.New("composition error")
	// ErrShareUnsupported means the platform offers no share surface.
	ErrShareUnsupported = errors.New("share unsupported")
	// ErrShareFailed covers cancelled or failed share hand-offs.
	ErrShareFailed = errors.New("share failed")

	ErrEmptyQuery       = errors.New("empty query")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrArtifactNotFound = errors.New("artifact not found")
)

// userMessages maps each error class to the text shown to the user.
var userMessages = []struct {
	err error
	msg string
}{
	{ErrEmptyQuery, "Bitte geben Sie einen Suchbegriff ein."},
	{ErrUnknownCategory, "Unbekannte Kategorie."},
	{ErrConfiguration, "API-Schlüssel fehlt. Bitte API_KEY setzen."},
	{ErrRequest, "Fehler bei der Produktsuche. Bitte versuchen Sie es später erneut."},
	{ErrComposition, "PDF konnte nicht erstellt werden."},
	{ErrShareUnsupported, "Teilen wird auf dieser Plattform nicht unterstützt."},
	{ErrShareFailed, "PDF konnte nicht geteilt werden."},
	{ErrArtifactNotFound, "PDF wurde nicht gefunden."},
}

// UserMessage converts an error into the message shown at an action boundary.
// Unclassified errors fall back to their own text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return err.Error()
}
