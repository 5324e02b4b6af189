package cache

// DocumentKeyOpts are the conversion options that change the encoded pages.
type DocumentKeyOpts struct {
	Seed string `json:"seed"`
}

// Keyer builds cache keys.
type Keyer interface {
	// DocumentKey is the key for the encoded pages of one conversion.
	DocumentKey(tableHash, configHash string, opts DocumentKeyOpts) string

	// PreviewKey is the key for a rendered hierarchy preview of one header.
	PreviewKey(tableHash, header, format string) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// DocumentKey implements Keyer.
func (DefaultKeyer) DocumentKey(tableHash, configHash string, opts DocumentKeyOpts) string {
	return typedKey("document", tableHash, configHash, opts)
}

// PreviewKey implements Keyer.
func (DefaultKeyer) PreviewKey(tableHash, header, format string) string {
	return typedKey("preview", tableHash, header, format)
}
