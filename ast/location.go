package ast

import "fmt"

// Location points at a contiguous run of source runes. Lowering never
// creates locations of its own, it only carries frontend locations through
// to bindings and diagnostics.
type Location struct {
	filePath    string
	fileContent []rune
	start       uint32
	end         uint32
}

func NewLocation(filePath string, content []rune, start uint32, end uint32) Location {
	return Location{
		filePath:    filePath,
		fileContent: content,
		start:       start,
		end:         end,
	}
}

func (loc Location) EqualsTo(other Location) bool {
	return loc.filePath == other.filePath && loc.start == other.start && loc.end == other.end
}

func (loc Location) IsEmpty() bool {
	return loc.filePath == ""
}

func (loc Location) CursorString() string {
	if loc.IsEmpty() {
		return ""
	}
	line, col := loc.GetLineAndColumn()
	return fmt.Sprintf("%s:%d:%d", loc.filePath, line, col)
}

func (loc Location) GetLineAndColumn() (line, column int) {
	line = 1
	column = 1
	for i := uint32(0); i < loc.start && i < uint32(len(loc.fileContent)); i++ {
		if '\n' == loc.fileContent[i] {
			line++
			column = 1
		} else {
			column++
		}
	}
	return
}

func (loc Location) FilePath() string {
	return loc.filePath
}

func (loc Location) Text() string {
	if loc.end > uint32(len(loc.fileContent)) {
		return ""
	}
	return string(loc.fileContent[loc.start:loc.end])
}

func (loc Location) Start() uint32 {
	return loc.start
}

func (loc Location) End() uint32 {
	return loc.end
}
