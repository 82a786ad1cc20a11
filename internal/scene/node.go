package scene

// Kind is the closed classification the tree visitor dispatches on.
type Kind int

const (
	KindOpaque    Kind = iota // no handler applies
	KindLeaf                  // text layer
	KindImage                 // single image fill
	KindContainer             // exposes children
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindImage:
		return "image"
	case KindContainer:
		return "container"
	default:
		return "opaque"
	}
}

// PaintType is the fill paint kind.
type PaintType string

// PaintImage marks an image fill.
const PaintImage PaintType = "IMAGE"

// Paint is one fill entry.
type Paint struct {
	Type      PaintType `json:"type"`
	ImageHash string    `json:"imageHash,omitempty"`
}

// Fills is a node's fill list. Mixed is set when a text range carries
// different fills per run.
type Fills struct {
	Paints []Paint
	Mixed  bool
}

// Header carries the fields every node has.
type Header struct {
	ID      string
	Name    string
	Visible bool
	X, Y    float64
	Fills   Fills
}

func (h *Header) NodeID() string { return h.ID }
func (h *Header) NodeName() string { return h.Name }
func (h *Header) IsVisible() bool { return h.Visible }
func (h *Header) Position() (x, y float64) { return h.X, h.Y }
func (h *Header) NodeFills() Fills { return h.Fills }

// Node is a scene graph element. The set of implementations is closed:
// *Text, *Frame and *Shape.
type Node interface {
	NodeID() string
	NodeName() string
	IsVisible() bool
	Position() (x, y float64)
	NodeFills() Fills
	Type() string

	sceneNode()
}

// Container is a node with ordered children.
type Container interface {
	Node
	Children() []Node
}

// Frame is a container node (frames, groups, components, instances).
type Frame struct {
	Header
	FrameType string // FRAME, GROUP, COMPONENT, INSTANCE, SECTION
	Nodes     []Node
}

func (f *Frame) Type() string {
	if f.FrameType == "" {
		return "FRAME"
	}
	return f.FrameType
}

func (f *Frame) Children() []Node { return f.Nodes }

// Append adds children in order.
func (f *Frame) Append(nodes ...Node) {
	f.Nodes = append(f.Nodes, nodes...)
}

func (f *Frame) sceneNode() {}

// Shape is a non-text leaf: rectangles, ellipses, vectors.
type Shape struct {
	Header
	ShapeType string
}

func (s *Shape) Type() string {
	if s.ShapeType == "" {
		return "RECTANGLE"
	}
	return s.ShapeType
}

func (s *Shape) sceneNode() {}

func (t *Text) Type() string { return "TEXT" }

func (t *Text) sceneNode() {}

// IsImage reports whether a node's fill list is exactly one IMAGE paint.
func IsImage(n Node) bool {
	fills := n.NodeFills()
	if fills.Mixed {
		return false
	}
	return len(fills.Paints) == 1 && fills.Paints[0].Type == PaintImage
}

// Classify maps a node to the kind the visitor dispatches on. Text wins
// over image fills, and image fills win over children.
func Classify(n Node) Kind {
	if _, ok := n.(*Text); ok {
		return KindLeaf
	}
	if IsImage(n) {
		return KindImage
	}
	if _, ok := n.(Container); ok {
		return KindContainer
	}
	return KindOpaque
}
