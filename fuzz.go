//go:build gofuzz

package classdex

func Fuzz(data []byte) int {
	f, err := NewBytes(data, &Options{DisableChecksumValidation: true})
	if err != nil {
		return 0
	}
	err = f.Parse()
	if err != nil {
		return 0
	}
	if f.Kind == KindClass {
		if _, err := f.Node(); err != nil {
			return 0
		}
	}
	return 1
}
