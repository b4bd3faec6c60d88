// Package assets loads external resources, meshes, images and grading
// tables, and registers them with a renderer device.
package assets

import (
	"encoding/binary"
	"fmt"
	gomath "math"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/spaghettifunk/chiaro/engine/math"
	"github.com/spaghettifunk/chiaro/engine/renderer"
	"github.com/spaghettifunk/chiaro/engine/resources"
)

// MeshLoader pulls triangle geometry out of glTF and GLB documents. Every
// triangle primitive of every mesh lands in one geometry resource.
type MeshLoader struct {
	// GenerateNormals computes smooth vertex normals when the document
	// carries none.
	GenerateNormals bool
}

func NewMeshLoader() *MeshLoader {
	return &MeshLoader{GenerateNormals: true}
}

// LoadGeometry loads path with default options and registers the result
// with the device.
func LoadGeometry(device renderer.Device, path string) (*resources.Geometry, error) {
	return NewMeshLoader().Load(device, path)
}

func (l *MeshLoader) Load(device renderer.Device, path string) (*resources.Geometry, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	geo, err := l.geometryFromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := device.CreateGeometry(geo); err != nil {
		return nil, err
	}
	return geo, nil
}

func (l *MeshLoader) geometryFromDocument(doc *gltf.Document, name string) (*resources.Geometry, error) {
	geo := &resources.Geometry{Name: name}
	hasNormals := false

	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			// Lines and points have no place in a triangle pipeline.
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				continue
			}
			posIdx, ok := prim.Attributes[gltf.POSITION]
			if !ok {
				continue
			}
			positions, err := readVec3(doc, posIdx)
			if err != nil {
				return nil, fmt.Errorf("mesh %q positions: %w", mesh.Name, err)
			}
			var normals [][3]float32
			if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
				if normals, err = readVec3(doc, normIdx); err != nil {
					return nil, fmt.Errorf("mesh %q normals: %w", mesh.Name, err)
				}
				hasNormals = hasNormals || len(normals) > 0
			}
			var uvs [][2]float32
			if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
				if uvs, err = readVec2(doc, uvIdx); err != nil {
					return nil, fmt.Errorf("mesh %q texcoords: %w", mesh.Name, err)
				}
			}

			base := uint32(len(geo.Vertices))
			for i := range positions {
				v := resources.Vertex{
					Position: mgl32.Vec3{positions[i][0], positions[i][1], positions[i][2]},
					Color:    mgl32.Vec4{1, 1, 1, 1},
				}
				if i < len(normals) {
					v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
				}
				if i < len(uvs) {
					// glTF texcoords use a top-left origin, the same
					// convention the device samples with.
					v.Texcoord = mgl32.Vec2{uvs[i][0], uvs[i][1]}
				}
				geo.Vertices = append(geo.Vertices, v)
			}

			if prim.Indices != nil {
				indices, err := readIndices(doc, *prim.Indices)
				if err != nil {
					return nil, fmt.Errorf("mesh %q indices: %w", mesh.Name, err)
				}
				for _, idx := range indices {
					geo.Indices = append(geo.Indices, base+idx)
				}
			} else {
				for i := range positions {
					geo.Indices = append(geo.Indices, base+uint32(i))
				}
			}
		}
	}

	if len(geo.Vertices) == 0 || len(geo.Indices) == 0 {
		return nil, fmt.Errorf("document %q holds no triangle geometry", name)
	}
	if len(geo.Indices)%3 != 0 {
		return nil, fmt.Errorf("document %q: index count %d is not a multiple of three", name, len(geo.Indices))
	}
	if l.GenerateNormals && !hasNormals {
		smoothNormals(geo.Vertices, geo.Indices)
	}
	computeBounds(geo)
	return geo, nil
}

func readVec3(doc *gltf.Document, accessorIdx int) ([][3]float32, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected a VEC3 accessor, got %v", accessor.Type)
	}
	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}
	out := make([][3]float32, accessor.Count)
	for i := range out {
		off := i * stride
		for j := 0; j < 3; j++ {
			out[i][j] = gomath.Float32frombits(binary.LittleEndian.Uint32(data[off+j*4:]))
		}
	}
	return out, nil
}

func readVec2(doc *gltf.Document, accessorIdx int) ([][2]float32, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected a VEC2 accessor, got %v", accessor.Type)
	}
	data, stride, err := accessorBytes(doc, accessor, 8)
	if err != nil {
		return nil, err
	}
	out := make([][2]float32, accessor.Count)
	for i := range out {
		off := i * stride
		for j := 0; j < 2; j++ {
			out[i][j] = gomath.Float32frombits(binary.LittleEndian.Uint32(data[off+j*4:]))
		}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]uint32, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected a SCALAR accessor, got %v", accessor.Type)
	}
	var elemSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		elemSize = 1
	case gltf.ComponentUshort:
		elemSize = 2
	case gltf.ComponentUint:
		elemSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", accessor.ComponentType)
	}
	data, stride, err := accessorBytes(doc, accessor, elemSize)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, accessor.Count)
	for i := range out {
		off := i * stride
		switch elemSize {
		case 1:
			out[i] = uint32(data[off])
		case 2:
			out[i] = uint32(binary.LittleEndian.Uint16(data[off:]))
		case 4:
			out[i] = binary.LittleEndian.Uint32(data[off:])
		}
	}
	return out, nil
}

// accessorBytes resolves an accessor to its backing bytes and element
// stride, bounds-checked against the buffer.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	view := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[view.Buffer]
	if len(buffer.Data) == 0 {
		return nil, 0, fmt.Errorf("buffer %d has no data loaded", view.Buffer)
	}
	if accessor.Count == 0 {
		return nil, 0, fmt.Errorf("accessor is empty")
	}
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + accessor.ByteOffset
	need := start + (accessor.Count-1)*stride + elemSize
	if need > len(buffer.Data) {
		return nil, 0, fmt.Errorf("accessor data runs past the end of buffer %d", view.Buffer)
	}
	return buffer.Data[start:], stride, nil
}

// smoothNormals rebuilds vertex normals by accumulating the area-weighted
// face normals of every triangle touching each vertex.
func smoothNormals(vertices []resources.Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Normal = mgl32.Vec3{}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a := vertices[indices[i]].Position
		b := vertices[indices[i+1]].Position
		c := vertices[indices[i+2]].Position
		n := b.Sub(a).Cross(c.Sub(a))
		for k := 0; k < 3; k++ {
			v := &vertices[indices[i+k]]
			v.Normal = v.Normal.Add(n)
		}
	}
	for i := range vertices {
		if n := vertices[i].Normal; n.Dot(n) > 1e-12 {
			vertices[i].Normal = n.Normalize()
		}
	}
}

func computeBounds(geo *resources.Geometry) {
	minV := geo.Vertices[0].Position
	maxV := minV
	for _, v := range geo.Vertices[1:] {
		p := v.Position
		minV = mgl32.Vec3{min(minV.X(), p.X()), min(minV.Y(), p.Y()), min(minV.Z(), p.Z())}
		maxV = mgl32.Vec3{max(maxV.X(), p.X()), max(maxV.Y(), p.Y()), max(maxV.Z(), p.Z())}
	}
	center := minV.Add(maxV).Mul(0.5)
	geo.Center = center

	radius2 := float32(0)
	for _, v := range geo.Vertices {
		d := v.Position.Sub(center)
		radius2 = max(radius2, d.Dot(d))
	}
	geo.Radius = math.Sqrt(radius2)
}
