package terrain

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ writes the renderable part of a mesh as a Wavefront OBJ with
// positions, texture coordinates and normals.
func WriteOBJ(w io.Writer, m *MeshData, name string) error {
	bw := bufio.NewWriter(w)

	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv.X, uv.Y)
	}
	for _, n := range m.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	for i := 0; i+2 < len(m.Triangles); i += 3 {
		a, b, c := m.Triangles[i]+1, m.Triangles[i+1]+1, m.Triangles[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}
