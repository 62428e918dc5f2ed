package catalog

import (
	"encoding/json"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
)

// pentagon is a closed five-vertex ring shaped like a small cell boundary.
var pentagon = orb.Ring{{0, 0}, {2, 0}, {2.6, 1.8}, {1, 3}, {-0.6, 1.8}, {0, 0}}

func TestGeometryTypeStorage(t *testing.T) {
	g := NewGeometryExtensionType()
	if g.ExtensionName() != "geoarrow.wkb" || g.String() != "extension<geoarrow.wkb>" {
		t.Errorf("unexpected identity %q / %q", g.ExtensionName(), g.String())
	}
	if !arrow.TypeEqual(g.StorageType(), arrow.BinaryTypes.Binary) {
		t.Errorf("storage = %s, want binary", g.StorageType())
	}
	if !g.ExtensionEquals(NewGeometryExtensionType()) {
		t.Error("two geometry types should be equal")
	}

	for _, st := range []arrow.DataType{arrow.BinaryTypes.Binary, arrow.BinaryTypes.LargeBinary} {
		if _, err := g.Deserialize(st, ""); err != nil {
			t.Errorf("Deserialize(%s) error = %v", st, err)
		}
	}
	if _, err := g.Deserialize(arrow.PrimitiveTypes.Uint64, ""); err == nil {
		t.Error("Deserialize(uint64) should fail")
	}
}

func TestNewGeometryFieldMetadata(t *testing.T) {
	tests := []struct {
		geomType  string
		wantTypes []string
	}{
		{geomType: "POLYGON", wantTypes: []string{"POLYGON"}},
		{geomType: "GEOMETRY"},
		{geomType: ""},
	}
	for _, tt := range tests {
		t.Run("type="+tt.geomType, func(t *testing.T) {
			f := NewGeometryField("boundary", false, WGS84, tt.geomType)
			if f.Nullable || f.Type.ID() != arrow.EXTENSION {
				t.Fatalf("unexpected field %v", f)
			}
			i := f.Metadata.FindKey("ARROW:extension:metadata")
			if i < 0 {
				t.Fatal("extension metadata missing")
			}
			var md GeometryMetadata
			if err := json.Unmarshal([]byte(f.Metadata.Values()[i]), &md); err != nil {
				t.Fatalf("metadata is not JSON: %v", err)
			}
			if md.CRS == nil || md.CRS.ID == nil || md.CRS.ID.Authority != "EPSG" || md.CRS.ID.Code != WGS84 {
				t.Errorf("crs = %+v", md.CRS)
			}
			if md.Encoding != "WKB" {
				t.Errorf("encoding = %q", md.Encoding)
			}
			if len(md.GeometryTypes) != len(tt.wantTypes) {
				t.Errorf("geometry_types = %v, want %v", md.GeometryTypes, tt.wantTypes)
			}
		})
	}
}

func TestCellPolygonWKB(t *testing.T) {
	poly := orb.Polygon{pentagon}
	b, err := EncodeGeometry(poly)
	if err != nil {
		t.Fatalf("EncodeGeometry() error = %v", err)
	}
	// byte order, type 3 (polygon), 1 ring, 6 points
	if b[0] != 1 || b[1] != 3 || b[5] != 1 || b[9] != 6 {
		t.Errorf("unexpected WKB header % x", b[:13])
	}
	got, err := DecodeGeometry(b)
	if err != nil {
		t.Fatalf("DecodeGeometry() error = %v", err)
	}
	if p, ok := got.(orb.Polygon); !ok || !p.Equal(poly) {
		t.Errorf("decoded %v", got)
	}

	if _, err := EncodeGeometry(nil); err == nil {
		t.Error("EncodeGeometry(nil) should fail")
	}
	if _, err := DecodeGeometry(nil); err == nil {
		t.Error("DecodeGeometry(nil) should fail")
	}
	if _, err := DecodeGeometry(b[:7]); err == nil {
		t.Error("DecodeGeometry(truncated) should fail")
	}
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name    string
		geom    orb.Geometry
		wantErr bool
	}{
		{name: "centroid", geom: orb.Point{12.5, 41.9}},
		{name: "closed pentagon", geom: orb.Polygon{pentagon}},
		{name: "open ring", geom: orb.Polygon{pentagon[:5]}, wantErr: true},
		{name: "degenerate ring", geom: orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, wantErr: true},
		{name: "no rings", geom: orb.Polygon{}, wantErr: true},
		{name: "nil", geom: nil, wantErr: true},
		{name: "linestring", geom: orb.LineString{{0, 0}, {1, 1}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeometry(tt.geom)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGeometry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeometryArrayWKB(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	b, err := EncodeGeometry(orb.Polygon{pentagon})
	if err != nil {
		t.Fatal(err)
	}
	storage := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer storage.Release()
	storage.AppendNull()
	storage.Append(b)
	raw := storage.NewArray()
	defer raw.Release()

	arr := array.NewExtensionArrayWithStorage(NewGeometryExtensionType(), raw)
	defer arr.Release()

	geom, ok := arr.(*GeometryArray)
	if !ok {
		t.Fatalf("expected *GeometryArray, got %T", arr)
	}
	if geom.WKB(0) != nil {
		t.Error("null row should have nil WKB")
	}
	if string(geom.WKB(1)) != string(b) {
		t.Error("WKB(1) does not match the stored bytes")
	}
}
