package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// checkEncoding inspects the first three bytes of path. Files shorter than
// three bytes pass.
func checkEncoding(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return newError(FileError, "", err)
	}
	defer f.Close()

	head := make([]byte, 3)
	n, err := io.ReadFull(f, head)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return nil
	case err != nil:
		return newError(FileError, "", err)
	case n < 3:
		return nil
	}

	if !validLead(head) {
		return newError(EncodingError, fmt.Sprintf("leading bytes % x", head), nil)
	}
	return nil
}

func isContinuation(b byte) bool {
	return b&0xC0 == 0x80
}

// validLead reports whether head starts with a BOM, an ASCII byte or a
// well-formed UTF-8 multi-byte sequence.
func validLead(head []byte) bool {
	if bytes.Equal(head, utf8BOM) {
		return true
	}

	b0 := head[0]
	switch {
	case b0&0x80 == 0:
		return true
	case b0&0xE0 == 0xC0:
		return isContinuation(head[1])
	case b0&0xF0 == 0xE0, b0&0xF8 == 0xF0:
		return isContinuation(head[1]) && isContinuation(head[2])
	default:
		return false
	}
}
