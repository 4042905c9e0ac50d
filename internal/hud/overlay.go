package hud

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/handtune/internal/detector"
	"github.com/ayusman/handtune/internal/gesture"
)

// Overlay colors.
var (
	ButtonColor  = color.RGBA{R: 150, G: 150, B: 150}
	HoverColor   = color.RGBA{R: 0, G: 255, B: 255}
	LabelColor   = color.RGBA{}
	BoneColor    = color.RGBA{R: 255, G: 255, B: 255}
	TipColor     = color.RGBA{R: 0, G: 255, B: 0}
	MessageColor = color.RGBA{R: 0, G: 255, B: 0}
	ClickedColor = color.RGBA{R: 255, G: 0, B: 0}
)

// handConnections are the landmark pairs joined when drawing a hand skeleton.
var handConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

// FrameState is everything the overlay needs to render one frame.
type FrameState struct {
	Cursor gesture.Cursor
	// Hands are drawn as skeletons.
	Hands []detector.HandLandmarks
	// Message is drawn when non-empty; callers pass only valid messages.
	Message     string
	LastClicked string
}

// Overlay draws the button bar, hand skeletons and status text onto frames.
type Overlay struct {
	layout *Layout
}

// NewOverlay creates an Overlay for layout.
func NewOverlay(layout *Layout) *Overlay {
	return &Overlay{layout: layout}
}

// Draw renders state onto frame in place.
func (o *Overlay) Draw(frame *gocv.Mat, state FrameState) {
	if frame == nil || frame.Empty() {
		return
	}

	for i := range state.Hands {
		drawHand(frame, &state.Hands[i])
	}

	o.drawButtons(frame, state.Cursor)

	if state.Message != "" {
		gocv.PutText(frame, state.Message, o.messageOrigin(),
			gocv.FontHersheySimplex, 1, MessageColor, 2)
	}

	if state.LastClicked != "" {
		gocv.PutText(frame, state.LastClicked, image.Pt(100, frame.Rows()-80),
			gocv.FontHersheySimplex, 1, ClickedColor, 2)
	}
}

func (o *Overlay) drawButtons(frame *gocv.Mat, cursor gesture.Cursor) {
	if o.layout == nil {
		return
	}

	// Hover highlights every region under the cursor, not only the one
	// RegionAt would pick.
	for _, r := range o.layout.Regions() {
		fill := ButtonColor
		if r.Bounds.Contains(cursor) {
			fill = HoverColor
		}

		rect := image.Rect(r.Bounds.X1, r.Bounds.Y1, r.Bounds.X2, r.Bounds.Y2)
		gocv.Rectangle(frame, rect, fill, -1)

		size := gocv.GetTextSize(r.Name, gocv.FontHersheySimplex, 1, 2)
		origin := image.Pt(
			r.Bounds.X1+(r.Bounds.Width()-size.X)/2,
			r.Bounds.Y1+(r.Bounds.Height()+size.Y)/2,
		)
		gocv.PutText(frame, r.Name, origin, gocv.FontHersheySimplex, 1, LabelColor, 2)
	}
}

// messageOrigin places status text below the lowest button.
func (o *Overlay) messageOrigin() image.Point {
	bottom := 0
	if o.layout != nil {
		for _, r := range o.layout.Regions() {
			if r.Bounds.Y2 > bottom {
				bottom = r.Bounds.Y2
			}
		}
	}
	return image.Pt(50, bottom+100)
}

func drawHand(frame *gocv.Mat, hand *detector.HandLandmarks) {
	w, h := float64(frame.Cols()), float64(frame.Rows())
	pt := func(i int) image.Point {
		p := hand.Points[i]
		return image.Pt(int(math.Round(p.X*w)), int(math.Round(p.Y*h)))
	}

	for _, conn := range handConnections {
		gocv.Line(frame, pt(conn[0]), pt(conn[1]), BoneColor, 3)
	}
	for i := range hand.Points {
		gocv.Circle(frame, pt(i), 2, BoneColor, -1)
	}
	for _, i := range []int{detector.ThumbTip, detector.IndexTip} {
		gocv.Circle(frame, pt(i), 5, TipColor, -1)
	}
}
