package ui2d

// Canvas is the drawing surface widgets render to. *Renderer implements it.
type Canvas interface {
	DrawRect(x, y, w, h float32, c Color)
	DrawRectOutline(x, y, w, h, thickness float32, c Color)
	DrawText(x, y float32, text string, scale float32, c Color)
	MeasureText(text string, scale float32) (float32, float32)
}

const (
	titleBarH = 25
	padding   = 8
	textScale = 1
)

// Context is an immediate-mode widget context for the map HUD.
type Context struct {
	canvas Canvas
	input  *InputState
	width  float32
	height float32

	hotWidget    string
	activeWidget string

	windows map[string]*WindowState
	order   []string

	currentWindow *WindowState

	cursorX float32
	cursorY float32
	rowH    float32
}

// WindowState holds state for a HUD window.
type WindowState struct {
	ID     string
	X, Y   float32
	W, H   float32
	Open   bool
	Moving bool
	moved  bool
}

// NewContext creates a widget context drawing to canvas.
func NewContext(canvas Canvas, width, height int) *Context {
	return &Context{
		canvas:  canvas,
		input:   &InputState{},
		width:   float32(width),
		height:  float32(height),
		windows: make(map[string]*WindowState),
	}
}

// Resize updates the screen size.
func (c *Context) Resize(width, height int) {
	c.width = float32(width)
	c.height = float32(height)
}

// ScreenSize returns the current screen dimensions.
func (c *Context) ScreenSize() (float32, float32) {
	return c.width, c.height
}

// Input returns the input state for modification.
func (c *Context) Input() *InputState {
	return c.input
}

// Begin starts a new HUD frame.
func (c *Context) Begin() {
	c.input.Update()
	c.hotWidget = ""
}

// End finishes the HUD frame.
func (c *Context) End() {
	c.currentWindow = nil
}

// WantsMouse reports whether (x, y) is over an open window, so the map
// should not receive the pointer event.
func (c *Context) WantsMouse(x, y float32) bool {
	for _, id := range c.order {
		ws := c.windows[id]
		if ws.Open && (Rect{ws.X, ws.Y, ws.W, ws.H}).Contains(x, y) {
			return true
		}
	}
	return false
}

// Window returns the state of a window seen in a previous frame.
func (c *Context) Window(id string) (*WindowState, bool) {
	ws, ok := c.windows[id]
	return ws, ok
}

// CloseWindow hides a window until it is reopened.
func (c *Context) CloseWindow(id string) {
	if ws, ok := c.windows[id]; ok {
		ws.Open = false
	}
}

// OpenWindow shows a closed window again.
func (c *Context) OpenWindow(id string) {
	if ws, ok := c.windows[id]; ok {
		ws.Open = true
	}
}

// BeginWindow starts a window. Once dragged by its title bar a window keeps
// its own position. Returns false if the window is closed.
func (c *Context) BeginWindow(id string, x, y, w, h float32, title string) bool {
	ws, ok := c.windows[id]
	if !ok {
		ws = &WindowState{ID: id, X: x, Y: y, W: w, H: h, Open: true}
		c.windows[id] = ws
		c.order = append(c.order, id)
	} else if !ws.moved {
		ws.X, ws.Y = x, y
	}
	ws.W, ws.H = w, h

	if !ws.Open {
		return false
	}
	c.currentWindow = ws

	titleBar := Rect{ws.X, ws.Y, ws.W, titleBarH}
	if c.input.MouseLeftPressed && titleBar.Contains(c.input.MouseX, c.input.MouseY) {
		ws.Moving = true
		c.activeWidget = id + "_titlebar"
	}
	if ws.Moving && c.input.MouseLeftDown {
		ws.X += c.input.MouseDeltaX
		ws.Y += c.input.MouseDeltaY
		if c.input.MouseDeltaX != 0 || c.input.MouseDeltaY != 0 {
			ws.moved = true
		}
	}
	if c.input.MouseLeftReleased {
		ws.Moving = false
		if c.activeWidget == id+"_titlebar" {
			c.activeWidget = ""
		}
	}

	c.canvas.DrawRect(ws.X, ws.Y, ws.W, ws.H, ColorPanelBg)
	c.canvas.DrawRectOutline(ws.X, ws.Y, ws.W, ws.H, 1, ColorPanelBorder)
	c.canvas.DrawRect(ws.X+1, ws.Y+1, ws.W-2, titleBarH-1, ColorButtonNormal)

	_, textH := c.canvas.MeasureText(title, textScale)
	c.canvas.DrawText(ws.X+padding, ws.Y+(titleBarH-textH)/2, title, textScale, ColorText)

	c.cursorX = ws.X + padding
	c.cursorY = ws.Y + titleBarH + padding
	c.rowH = 0
	return true
}

// EndWindow ends the current window.
func (c *Context) EndWindow() {
	c.currentWindow = nil
}

// Row starts a new row with the given height.
func (c *Context) Row(height float32) {
	if c.currentWindow == nil {
		return
	}
	c.cursorX = c.currentWindow.X + padding
	c.cursorY += c.rowH + 4
	c.rowH = height
}

func (c *Context) contentWidth() float32 {
	return c.currentWindow.W - 2*padding
}

// Button draws a button and returns true when it is pressed.
func (c *Context) Button(id string, width float32, label string) bool {
	if c.currentWindow == nil {
		return false
	}

	x, y, h := c.cursorX, c.cursorY, c.rowH
	if h == 0 {
		h = 24
	}
	if width == 0 {
		width = c.contentWidth()
	}

	fullID := c.currentWindow.ID + "_" + id
	hovered := Rect{x, y, width, h}.Contains(c.input.MouseX, c.input.MouseY)
	clicked := false
	if hovered {
		c.hotWidget = fullID
		if c.input.MouseLeftPressed {
			c.activeWidget = fullID
			clicked = true
		}
	}
	if c.activeWidget == fullID && c.input.MouseLeftReleased {
		c.activeWidget = ""
	}

	color := ColorButtonNormal
	if c.activeWidget == fullID {
		color = ColorButtonActive
	} else if hovered {
		color = ColorButtonHover
	}
	c.canvas.DrawRect(x, y, width, h, color)
	c.canvas.DrawRectOutline(x, y, width, h, 1, ColorPanelBorder)

	textW, textH := c.canvas.MeasureText(label, textScale)
	c.canvas.DrawText(x+(width-textW)/2, y+(h-textH)/2, label, textScale, ColorText)

	c.cursorX += width + 4
	return clicked
}

// ButtonDisabled draws a button that cannot be pressed.
func (c *Context) ButtonDisabled(width float32, label string) {
	if c.currentWindow == nil {
		return
	}

	x, y, h := c.cursorX, c.cursorY, c.rowH
	if h == 0 {
		h = 24
	}
	if width == 0 {
		width = c.contentWidth()
	}

	c.canvas.DrawRect(x, y, width, h, ColorButtonNormal.Darken(0.3))
	c.canvas.DrawRectOutline(x, y, width, h, 1, ColorPanelBorder.Darken(0.3))
	textW, textH := c.canvas.MeasureText(label, textScale)
	c.canvas.DrawText(x+(width-textW)/2, y+(h-textH)/2, label, textScale, ColorTextDim)

	c.cursorX += width + 4
}

// Label draws a text label.
func (c *Context) Label(text string) {
	c.LabelColored(text, ColorText)
}

// LabelColored draws a text label with a specific color.
func (c *Context) LabelColored(text string, color Color) {
	if c.currentWindow == nil {
		return
	}
	c.canvas.DrawText(c.cursorX, c.cursorY, text, textScale, color)
	w, _ := c.canvas.MeasureText(text, textScale)
	c.cursorX += w + 4
}

// LabelCentered draws text centered in the window.
func (c *Context) LabelCentered(text string) {
	if c.currentWindow == nil {
		return
	}
	textW, _ := c.canvas.MeasureText(text, textScale)
	x := c.currentWindow.X + padding + (c.contentWidth()-textW)/2
	x = max(x, c.currentWindow.X+padding)
	c.canvas.DrawText(x, c.cursorY, text, textScale, ColorText)
}

// Swatch draws a small color square, used as a legend key.
func (c *Context) Swatch(color Color) {
	if c.currentWindow == nil {
		return
	}
	const size = 10
	c.canvas.DrawRect(c.cursorX, c.cursorY+1, size, size, color)
	c.cursorX += size + 6
}

// Spacer adds vertical space.
func (c *Context) Spacer(height float32) {
	c.cursorY += height
}

// Separator draws a horizontal separator line.
func (c *Context) Separator() {
	if c.currentWindow == nil {
		return
	}
	c.cursorY += c.rowH + 4
	c.rowH = 0
	x := c.currentWindow.X + padding
	c.canvas.DrawRect(x, c.cursorY, c.contentWidth(), 1, ColorPanelBorder)
	c.cursorY += padding
	c.cursorX = x
}

// ProgressBar draws a progress bar; fraction is clamped to [0,1].
func (c *Context) ProgressBar(fraction float32, width, height float32, label string) {
	if c.currentWindow == nil {
		return
	}

	x, y := c.cursorX, c.cursorY
	if height == 0 {
		height = 18
	}
	if width == 0 {
		width = c.contentWidth()
	}
	fraction = max(0, min(1, fraction))

	c.canvas.DrawRect(x, y, width, height, ColorInputBg)
	c.canvas.DrawRectOutline(x, y, width, height, 1, ColorPanelBorder)
	if fill := (width - 2) * fraction; fill > 0 {
		c.canvas.DrawRect(x+1, y+1, fill, height-2, ColorHighlight)
	}
	if label != "" {
		textW, textH := c.canvas.MeasureText(label, textScale)
		c.canvas.DrawText(x+(width-textW)/2, y+(height-textH)/2, label, textScale, ColorText)
	}

	c.cursorX = c.currentWindow.X + padding
	c.cursorY += height + 4
}

// Checkbox draws a checkbox and returns the possibly toggled value. The
// value toggles when the button is released over the box.
func (c *Context) Checkbox(id string, label string, checked bool) bool {
	if c.currentWindow == nil {
		return checked
	}

	x, y := c.cursorX, c.cursorY
	const boxSize = 14

	fullID := c.currentWindow.ID + "_" + id
	hovered := Rect{x, y, boxSize, boxSize}.Contains(c.input.MouseX, c.input.MouseY)
	if hovered && c.input.MouseLeftPressed {
		c.activeWidget = fullID
	}
	if c.activeWidget == fullID && c.input.MouseLeftReleased {
		if hovered {
			checked = !checked
		}
		c.activeWidget = ""
	}

	bg := ColorInputBg
	if hovered {
		bg = ColorButtonHover
	}
	c.canvas.DrawRect(x, y, boxSize, boxSize, bg)
	c.canvas.DrawRectOutline(x, y, boxSize, boxSize, 1, ColorPanelBorder)
	if checked {
		const inset = 3
		c.canvas.DrawRect(x+inset, y+inset, boxSize-2*inset, boxSize-2*inset, ColorHighlight)
	}

	labelW, textH := c.canvas.MeasureText(label, textScale)
	c.canvas.DrawText(x+boxSize+6, y+(boxSize-textH)/2, label, textScale, ColorText)

	c.cursorX += boxSize + 6 + labelW + 8
	return checked
}

// Rect is a simple rectangle struct.
type Rect struct {
	X, Y, W, H float32
}

// Contains checks if a point is inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}
