package rendering

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
)

var errNoSVG = errors.New("output is not an SVG document")

// checkSVG requires an <svg> root element that closes before the input ends.
// Exit status alone is not trusted: the engine can exit 0 with empty output.
func checkSVG(out []byte) error {
	if len(bytes.TrimSpace(out)) == 0 {
		return errNoSVG
	}

	dec := xml.NewDecoder(bytes.NewReader(out))
	dec.Entity = xml.HTMLEntity

	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != "svg" || sawRoot {
					return errNoSVG
				}
				sawRoot = true
			}
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 && t.Name.Local == "svg" {
				return nil
			}
		}
	}
	return errNoSVG
}
