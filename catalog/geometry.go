package catalog

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// WGS84 is the SRID of longitude/latitude degrees.
const WGS84 = 4326

// GeometryExtensionType implements Arrow extension type for geospatial data.
// Geometries are stored as WKB (Well-Known Binary) in Binary columns and
// are recognized by DuckDB spatial as GEOMETRY.
type GeometryExtensionType struct {
	arrow.ExtensionBase
}

// NewGeometryExtensionType creates a new geometry extension type.
func NewGeometryExtensionType() *GeometryExtensionType {
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{
			Storage: arrow.BinaryTypes.Binary,
		},
	}
}

// ArrayType returns the Go type for geometry arrays.
func (g *GeometryExtensionType) ArrayType() reflect.Type {
	return reflect.TypeOf(GeometryArray{})
}

// ExtensionName returns "geoarrow.wkb".
func (g *GeometryExtensionType) ExtensionName() string {
	return "geoarrow.wkb"
}

func (g *GeometryExtensionType) String() string {
	return "extension<geoarrow.wkb>"
}

// Serialize returns the extension metadata (empty for basic WKB).
func (g *GeometryExtensionType) Serialize() string {
	return ""
}

// Deserialize creates a geometry extension type from metadata.
func (g *GeometryExtensionType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.BinaryTypes.Binary) &&
		!arrow.TypeEqual(storageType, arrow.BinaryTypes.LargeBinary) {
		return nil, fmt.Errorf("invalid storage type for geometry: %s (expected Binary or LargeBinary)", storageType)
	}
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: storageType},
	}, nil
}

// ExtensionEquals checks equality with another extension type.
func (g *GeometryExtensionType) ExtensionEquals(other arrow.ExtensionType) bool {
	otherGeom, ok := other.(*GeometryExtensionType)
	if !ok {
		return false
	}
	return arrow.TypeEqual(g.StorageType(), otherGeom.StorageType())
}

// GeometryArray is the array type of GeometryExtensionType columns.
type GeometryArray struct {
	array.ExtensionArrayBase
}

// WKB returns the encoded geometry of row i, or nil for a null row.
func (a *GeometryArray) WKB(i int) []byte {
	if a.IsNull(i) {
		return nil
	}
	return a.Storage().(*array.Binary).Value(i)
}

// GeometryMetadata represents CRS and encoding information for geometry columns.
// Stored in Arrow field metadata as JSON.
type GeometryMetadata struct {
	CRS           *CRS     `json:"crs,omitempty"`
	Encoding      string   `json:"encoding,omitempty"`
	GeometryTypes []string `json:"geometry_types,omitempty"`
	// Edges is "planar" or "spherical".
	Edges string `json:"edges,omitempty"`
}

// CRS represents a coordinate reference system in PROJJSON format.
type CRS struct {
	ID   *CRSID `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// CRSID represents a CRS identifier (typically EPSG code).
type CRSID struct {
	Authority string `json:"authority"`
	Code      int    `json:"code"`
}

// NewGeometryField creates an Arrow field with geometry extension type and metadata.
func NewGeometryField(name string, nullable bool, srid int, geomType string) arrow.Field {
	extType := NewGeometryExtensionType()

	metadata := &GeometryMetadata{
		CRS: &CRS{
			ID: &CRSID{Authority: "EPSG", Code: srid},
		},
		Encoding: "WKB",
	}
	if geomType != "" && geomType != "GEOMETRY" {
		metadata.GeometryTypes = []string{geomType}
	}
	metadataJSON, _ := json.Marshal(metadata)

	return arrow.Field{
		Name:     name,
		Type:     extType,
		Nullable: nullable,
		Metadata: arrow.MetadataFrom(map[string]string{
			"ARROW:extension:name":     extType.ExtensionName(),
			"ARROW:extension:metadata": string(metadataJSON),
			"srid":                     strconv.Itoa(srid),
			"geometry_type":            geomType,
			"dimension":                "XY",
		}),
	}
}

// EncodeGeometry converts an orb.Geometry to WKB bytes for Arrow storage.
func EncodeGeometry(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, fmt.Errorf("cannot encode nil geometry")
	}
	return wkb.Marshal(geom)
}

// DecodeGeometry converts WKB bytes from Arrow storage to orb.Geometry.
func DecodeGeometry(wkbBytes []byte) (orb.Geometry, error) {
	if len(wkbBytes) == 0 {
		return nil, fmt.Errorf("cannot decode empty WKB data")
	}
	return wkb.Unmarshal(wkbBytes)
}

// ValidateGeometry checks the point and polygon shapes produced for cells.
func ValidateGeometry(geom orb.Geometry) error {
	switch g := geom.(type) {
	case nil:
		return fmt.Errorf("geometry is nil")
	case orb.Point:
		return nil
	case orb.Polygon:
		if len(g) == 0 {
			return fmt.Errorf("polygon has no rings")
		}
		for i, ring := range g {
			if len(ring) < 4 {
				return fmt.Errorf("polygon ring[%d] must have at least 4 points, has %d", i, len(ring))
			}
			if !ring.Closed() {
				return fmt.Errorf("polygon ring[%d] is not closed", i)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type: %T", geom)
	}
}

// RegisterGeometryExtension registers the geometry extension type with Arrow.
func RegisterGeometryExtension() {
	_ = arrow.RegisterExtensionType(NewGeometryExtensionType())
}

func init() {
	RegisterGeometryExtension()
}
