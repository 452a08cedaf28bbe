// Package preview draws frames in a local OpenCV window and encodes them
// for remote viewers.
package preview

import (
	"gocv.io/x/gocv"
)

// Window shows annotated frames and watches for the stop key.
type Window struct {
	window  *gocv.Window
	stopKey int
	stop    bool
}

// NewWindow opens a preview window. Only the first byte of stopKey is used;
// an empty key disables keyboard stop.
func NewWindow(title, stopKey string) *Window {
	key := -1
	if stopKey != "" {
		key = int(stopKey[0])
	}
	return &Window{window: gocv.NewWindow(title), stopKey: key}
}

func (w *Window) Show(frame *gocv.Mat, vehicles int) error {
	w.window.IMShow(*frame)
	if key := w.window.WaitKey(1); key >= 0 && key&0xFF == w.stopKey {
		w.stop = true
	}
	return nil
}

func (w *Window) PollStop() bool {
	return w.stop
}

func (w *Window) Close() error {
	return w.window.Close()
}

// EncodeJPEG compresses a frame for the live viewer.
func EncodeJPEG(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
