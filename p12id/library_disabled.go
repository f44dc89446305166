//go:build nopkcs12lib

package p12id

func newLibrary() (Extractor, bool) {
	return nil, false
}
