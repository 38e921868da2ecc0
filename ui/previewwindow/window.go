// Package previewwindow shows instruction previews in a desktop window.
package previewwindow

import (
	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const appID = "io.arctracer.preview"

// Window displays one rendered preview with a status line under it.
type Window struct {
	fyne.Window
	image     *canvas.Image
	statusBar *widget.Label
}

// New creates a preview window.
func New(fyneApp fyne.App, title string) *Window {
	w := &Window{Window: fyneApp.NewWindow(title)}

	w.image = canvas.NewImageFromResource(nil)
	w.image.FillMode = canvas.ImageFillContain
	w.image.SetMinSize(fyne.NewSize(400, 400))

	w.statusBar = widget.NewLabel("")

	w.SetContent(container.NewBorder(
		nil,                              // top
		container.NewPadded(w.statusBar), // bottom
		nil,                              // left
		nil,                              // right
		w.image,                          // center
	))
	w.Resize(fyne.NewSize(800, 800))
	return w
}

// SetPreview replaces the displayed image with the given PNG bytes.
func (w *Window) SetPreview(pngData []byte, status string) {
	w.image.Resource = fyne.NewStaticResource("preview.png", pngData)
	w.image.Refresh()
	w.statusBar.SetText(status)
}

// Show opens a window with the preview and blocks until it is closed.
func Show(title string, pngData []byte, status string) error {
	a := fyneapp.NewWithID(appID)
	w := New(a, title)
	w.SetPreview(pngData, status)
	w.ShowAndRun()
	return nil
}
