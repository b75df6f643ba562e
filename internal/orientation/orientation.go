// Package orientation maps EXIF orientation codes onto the rotation and
// horizontal flip needed to display a raster upright.
package orientation

import (
	"fmt"

	"github.com/AnyUserName/tgimg-decode/internal/imagesize"
)

// Code is the EXIF Orientation tag value (0x0112), 1 through 8.
type Code int

const (
	Normal         Code = 1
	FlipHorizontal Code = 2
	Rotate180      Code = 3
	FlipVertical   Code = 4
	Transpose      Code = 5
	Rotate90       Code = 6
	Transverse     Code = 7
	Rotate270      Code = 8
)

var codeNames = map[Code]string{
	Normal:         "normal",
	FlipHorizontal: "flip-horizontal",
	Rotate180:      "rotate-180",
	FlipVertical:   "flip-vertical",
	Transpose:      "transpose",
	Rotate90:       "rotate-90",
	Transverse:     "transverse",
	Rotate270:      "rotate-270",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Info is the geometric correction for a source: flip first, then rotate
// clockwise by Rotation degrees. The zero value means "no correction".
type Info struct {
	Rotation       int  `json:"rotation"`
	FlipHorizontal bool `json:"flip_horizontal,omitempty"`
}

// Default is the no-op orientation.
var Default = Info{}

var table = map[Code]Info{
	Normal:         {Rotation: 0},
	FlipHorizontal: {Rotation: 0, FlipHorizontal: true},
	Rotate180:      {Rotation: 180},
	FlipVertical:   {Rotation: 180, FlipHorizontal: true},
	Transpose:      {Rotation: 90, FlipHorizontal: true},
	Rotate90:       {Rotation: 90},
	Transverse:     {Rotation: 270, FlipHorizontal: true},
	Rotate270:      {Rotation: 270},
}

// FromCode looks up the correction for an EXIF code. Unknown codes report
// ok == false and return Default.
func FromCode(c Code) (Info, bool) {
	info, ok := table[c]
	if !ok {
		return Default, false
	}
	return info, true
}

// IsIdentity reports whether the correction changes nothing.
func (i Info) IsIdentity() bool {
	return i.Rotation == 0 && !i.FlipHorizontal
}

// Compose adds a further clockwise rotation, wrapping at 360.
func (i Info) Compose(deg int) Info {
	i.Rotation = imagesize.NormalizeRotation(i.Rotation + deg)
	return i
}

func (i Info) String() string {
	if i.FlipHorizontal {
		return fmt.Sprintf("flip+rotate %d", i.Rotation)
	}
	return fmt.Sprintf("rotate %d", i.Rotation)
}
