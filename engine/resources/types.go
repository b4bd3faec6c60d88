package resources

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TextureKind tells the device how a texture is addressed by shaders.
type TextureKind int

const (
	// TextureKind2D is a regular two dimensional image.
	TextureKind2D TextureKind = iota
	// TextureKind3D is a volume, used for color grading lookup tables.
	TextureKind3D
	// TextureKindDepth stores depth values written by a depth-only pass.
	TextureKindDepth
)

// TextureFormat describes the channel layout of a texture in memory.
type TextureFormat int

const (
	// TextureFormatRGBA8 is four 8-bit channels, sRGB encoded on load.
	TextureFormatRGBA8 TextureFormat = iota
	// TextureFormatRGBA32F is four float32 channels, linear.
	TextureFormatRGBA32F
	// TextureFormatDepth32F is a single float32 depth channel.
	TextureFormatDepth32F
)

// TextureFilter selects the sampling filter applied when a texture is read.
type TextureFilter int

const (
	TextureFilterNearest TextureFilter = iota
	TextureFilterLinear
)

// TextureRepeat selects how texture coordinates outside [0,1] are treated.
type TextureRepeat int

const (
	TextureRepeatWrap TextureRepeat = iota
	TextureRepeatClamp
)

// Texture is a handle to a device texture. The frontend fills in the
// descriptive fields; the device keeps whatever it needs in InternalData,
// which nothing outside the device may touch.
type Texture struct {
	ID     uint32
	Name   string
	Kind   TextureKind
	Format TextureFormat
	Filter TextureFilter
	Repeat TextureRepeat
	Width  uint32
	Height uint32
	// Depth is the slice count for TextureKind3D volumes, otherwise 1.
	Depth uint32
	// Generation is incremented every time the texture contents are
	// replaced, so cached bindings can detect stale data.
	Generation   uint32
	InternalData interface{}
}

// Target is a handle to an offscreen render destination with a color
// attachment and optional depth and stencil storage. A Format of
// TextureFormatDepth32F makes the target depth-only: no color storage is
// allocated and Color stays nil.
type Target struct {
	ID         uint32
	Name       string
	Width      uint32
	Height     uint32
	Format     TextureFormat
	HasDepth   bool
	HasStencil bool
	// Color exposes the color attachment for sampling in later passes.
	Color *Texture
	// Depth exposes the depth attachment for sampling when HasDepth is set.
	Depth        *Texture
	InternalData interface{}
}

// Vertex is the interleaved layout consumed by every geometry in the
// engine. Positions and normals are object space.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Texcoord mgl32.Vec2
	Color    mgl32.Vec4
}

// Geometry is a handle to uploaded vertex and index data. Indices address
// Vertices in groups of three, counter-clockwise front faces.
type Geometry struct {
	ID   uint32
	Name string
	// Generation is incremented on every re-upload.
	Generation uint32
	// Center and Radius bound the geometry in object space for culling.
	Center       mgl32.Vec3
	Radius       float32
	Vertices     []Vertex
	Indices      []uint32
	InternalData interface{}
}
