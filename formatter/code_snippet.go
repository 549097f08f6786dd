package formatter

import (
	"os"
	"strings"
)

// SourceCode stores the lines of a source file.
type SourceCode struct {
	Lines []string
}

func NewSourceCode(src []byte) *SourceCode {
	return &SourceCode{Lines: strings.Split(string(src), "\n")}
}

// ReadSourceCode reads filename into a SourceCode.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}
