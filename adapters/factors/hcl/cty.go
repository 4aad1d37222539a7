// Package hcl - Safe CTY value conversion
// Dataset values are never blindly passed through: only known numbers and
// NotApplicable spellings are accepted, everything else is a parse error.
package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"carbontrace/core/factors"
	"carbontrace/internal/errors"
)

// scalarAttr reads one factor attribute from a block
func scalarAttr(block *hcl.Block, name string) (interface{}, error) {
	value, err := attrValue(block, name)
	if err != nil {
		return nil, err
	}
	return factorValue(block, value)
}

// mapAttr reads a map attribute (unit -> factor, method -> factor)
func mapAttr(block *hcl.Block, name string) (map[string]interface{}, error) {
	value, err := attrValue(block, name)
	if err != nil {
		return nil, err
	}
	if !value.Type().IsObjectType() && !value.Type().IsMapType() {
		return nil, errors.Newf(errors.TypeParsing, "%s in %s block %v must be a map", name, block.Type, block.Labels)
	}

	out := make(map[string]interface{})
	for key, v := range value.AsValueMap() {
		converted, err := factorValue(block, v)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func attrValue(block *hcl.Block, name string) (cty.Value, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, errors.Wrapf(errors.TypeParsing, diags, "invalid %s block %v", block.Type, block.Labels)
	}
	attr, ok := attrs[name]
	if !ok {
		return cty.NilVal, errors.Newf(errors.TypeParsing, "%s block %v is missing attribute %q", block.Type, block.Labels, name)
	}
	value, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, errors.Wrapf(errors.TypeParsing, diags, "invalid %s value in %s block %v", name, block.Type, block.Labels)
	}
	return value, nil
}

// factorValue converts a CTY leaf to table input: a decimal for numbers, the
// raw string for NotApplicable spellings
func factorValue(block *hcl.Block, v cty.Value) (interface{}, error) {
	if !v.IsKnown() || v.IsNull() {
		return nil, errors.Newf(errors.TypeParsing, "unknown value in %s block %v", block.Type, block.Labels)
	}

	switch v.Type() {
	case cty.Number:
		d, err := decimal.NewFromString(v.AsBigFloat().Text('f', -1))
		if err != nil {
			return nil, errors.Wrapf(errors.TypeParsing, err, "bad number in %s block %v", block.Type, block.Labels)
		}
		if d.IsNegative() {
			return nil, errors.Newf(errors.TypeParsing, "negative factor in %s block %v", block.Type, block.Labels)
		}
		return d, nil
	case cty.String:
		s := v.AsString()
		if !isNAOrNumber(s) {
			return nil, errors.Newf(errors.TypeParsing, "unrecognized factor %q in %s block %v", s, block.Type, block.Labels)
		}
		return s, nil
	default:
		return nil, errors.Newf(errors.TypeParsing, "unsupported value type %s in %s block %v", v.Type().FriendlyName(), block.Type, block.Labels)
	}
}

func isNAOrNumber(s string) bool {
	if factors.IsNASpelling(s) {
		return true
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}
