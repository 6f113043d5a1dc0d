package ui2d

// InputState is the pointer state the HUD reads each frame.
type InputState struct {
	MouseX      float32
	MouseY      float32
	MouseDeltaX float32
	MouseDeltaY float32

	MouseLeftDown     bool
	MouseLeftPressed  bool
	MouseLeftReleased bool

	prevMouseLeft bool
	prevMouseX    float32
	prevMouseY    float32
}

// Update derives deltas and press/release edges. Call it once per frame
// after setting the raw values.
func (i *InputState) Update() {
	i.MouseDeltaX = i.MouseX - i.prevMouseX
	i.MouseDeltaY = i.MouseY - i.prevMouseY

	i.MouseLeftPressed = i.MouseLeftDown && !i.prevMouseLeft
	i.MouseLeftReleased = !i.MouseLeftDown && i.prevMouseLeft

	i.prevMouseLeft = i.MouseLeftDown
	i.prevMouseX = i.MouseX
	i.prevMouseY = i.MouseY
}

// IsMouseInRect checks if the mouse is within a rectangle.
func (i *InputState) IsMouseInRect(x, y, w, h float32) bool {
	return Rect{x, y, w, h}.Contains(i.MouseX, i.MouseY)
}
