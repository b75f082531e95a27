// Package measure measures label text for block layout.
//
// Text is measured with [github.com/fogleman/gg] over a TrueType face
// parsed by [github.com/golang/freetype/truetype]; the default face is Go
// Regular from golang.org/x/image/font/gofont.
//
// Measurements can be memoised for the duration of a layout pass:
//
//	err := m.Run(func() error {
//	    return ws.RenderAll()
//	})
//
// Outside Run (or Begin/End) every call measures afresh.
package measure
