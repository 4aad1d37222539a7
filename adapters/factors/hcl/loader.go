// Package hcl loads emission-factor datasets authored as HCL files and
// layers them over the built-in factor tables. All raw key and sentinel
// normalization happens here, once, at the boundary; the resolver never
// guesses spellings.
package hcl

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"carbontrace/core/factors"
	"carbontrace/internal/errors"
	"carbontrace/internal/logging"

	"go.uber.org/zap"
)

// datasetSchema describes the dataset block types.
//
//	fuel "Liquid fuels" "Diesel"            { factors = { "Litre" = 2.70553 } }
//	grid "Norway"                           { factor = 0.008 }
//	passenger_vehicles "Activity" "Type"    { factors = { "km" = 0.16984 } }
//	delivery_vehicles "Activity" "Type"     { factors = { "tonne.km" = 0.10649 } }
//	travel "Taxi"                           { factors = { "km" = 0.20369 } }
//	refrigerant "R-404A"                    { factor = 3922 }
//	waste "Mixed Paper"                     { methods = { "Composted" = "N/A" } }
var datasetSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: factors.TableFuel, LabelNames: []string{"group", "fuel"}},
		{Type: factors.TableGrid, LabelNames: []string{"country"}},
		{Type: factors.TablePassenger, LabelNames: []string{"activity", "vehicle_type"}},
		{Type: factors.TableDelivery, LabelNames: []string{"activity", "vehicle_type"}},
		{Type: factors.TableTravel, LabelNames: []string{"mode"}},
		{Type: factors.TableRefrigerant, LabelNames: []string{"refrigerant"}},
		{Type: factors.TableWaste, LabelNames: []string{"material"}},
	},
}

// Loader parses HCL dataset files into factor catalogs
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a dataset loader
func NewLoader() *Loader {
	return &Loader{
		parser: hclparse.NewParser(),
	}
}

// LoadDir parses every .hcl file under dir into one catalog. The result
// contains only what the files declare; callers layer it over the built-in
// catalog with Merge.
func (l *Loader) LoadDir(dir string) (*factors.Catalog, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".hcl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.TypeParsing, "failed to walk dataset directory", err)
	}

	b := newCatalogBuilder()
	for _, file := range files {
		if err := l.loadFile(file, b); err != nil {
			return nil, err
		}
	}

	logging.Debug("loaded factor dataset",
		zap.String("dir", dir),
		zap.Int("files", len(files)))

	return b.catalog(), nil
}

// LoadFile parses a single dataset file into a catalog
func (l *Loader) LoadFile(path string) (*factors.Catalog, error) {
	b := newCatalogBuilder()
	if err := l.loadFile(path, b); err != nil {
		return nil, err
	}
	return b.catalog(), nil
}

func (l *Loader) loadFile(path string, b *catalogBuilder) error {
	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return errors.Wrapf(errors.TypeParsing, diags, "failed to parse dataset file %s", path)
	}

	content, diags := file.Body.Content(datasetSchema)
	if diags.HasErrors() {
		return errors.Wrapf(errors.TypeParsing, diags, "invalid dataset structure in %s", path)
	}

	for _, block := range content.Blocks {
		if err := b.addBlock(block); err != nil {
			return err
		}
	}
	return nil
}

// catalogBuilder accumulates nested table data before building immutable
// tables
type catalogBuilder struct {
	tables map[string]map[string]interface{}
}

func newCatalogBuilder() *catalogBuilder {
	tables := make(map[string]map[string]interface{})
	for _, name := range factors.TableNames() {
		tables[name] = make(map[string]interface{})
	}
	return &catalogBuilder{tables: tables}
}

func (b *catalogBuilder) addBlock(block *hcl.Block) error {
	switch block.Type {
	case factors.TableGrid, factors.TableRefrigerant:
		value, err := scalarAttr(block, "factor")
		if err != nil {
			return err
		}
		b.tables[block.Type][block.Labels[0]] = value

	case factors.TableTravel:
		units, err := mapAttr(block, "factors")
		if err != nil {
			return err
		}
		b.tables[block.Type][block.Labels[0]] = units

	case factors.TableWaste:
		methods, err := mapAttr(block, "methods")
		if err != nil {
			return err
		}
		b.tables[block.Type][block.Labels[0]] = methods

	case factors.TableFuel, factors.TablePassenger, factors.TableDelivery:
		units, err := mapAttr(block, "factors")
		if err != nil {
			return err
		}
		outer := b.tables[block.Type]
		inner, ok := outer[block.Labels[0]].(map[string]interface{})
		if !ok {
			inner = make(map[string]interface{})
			outer[block.Labels[0]] = inner
		}
		inner[block.Labels[1]] = units

	default:
		return errors.Newf(errors.TypeParsing, "unknown dataset block type: %s", block.Type)
	}
	return nil
}

func (b *catalogBuilder) catalog() *factors.Catalog {
	return &factors.Catalog{
		Fuel:        factors.NewTable(factors.TableFuel, factors.DepthFuel, b.tables[factors.TableFuel]),
		Grid:        factors.NewTable(factors.TableGrid, factors.DepthGrid, b.tables[factors.TableGrid]),
		Passenger:   factors.NewTable(factors.TablePassenger, factors.DepthVehicle, b.tables[factors.TablePassenger]),
		Delivery:    factors.NewTable(factors.TableDelivery, factors.DepthVehicle, b.tables[factors.TableDelivery]),
		Travel:      factors.NewTable(factors.TableTravel, factors.DepthTravel, b.tables[factors.TableTravel]),
		Refrigerant: factors.NewTable(factors.TableRefrigerant, factors.DepthRefrigerant, b.tables[factors.TableRefrigerant]),
		Waste:       factors.NewTable(factors.TableWaste, factors.DepthWaste, b.tables[factors.TableWaste]),
	}
}

// Load resolves the effective catalog for a configuration: the built-in
// tables, with an optional dataset directory layered on top
func Load(datasetDir string) (*factors.Catalog, error) {
	base := factors.Builtin()
	if datasetDir == "" {
		return base, nil
	}
	if _, err := os.Stat(datasetDir); os.IsNotExist(err) {
		return nil, errors.Newf(errors.TypeConfig, "dataset directory does not exist: %s", datasetDir)
	}

	overlay, err := NewLoader().LoadDir(datasetDir)
	if err != nil {
		return nil, err
	}
	return base.Merge(overlay), nil
}
