package commands

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/nonibytes/tarpit/tarpit"
)

// useDefault is what a bare --field flag sets when the field has a default
const useDefault = "(default)"

// fieldValue collects every occurrence of one field flag into an Input
type fieldValue struct {
	name string
	list bool
	in   tarpit.Input
}

func (f *fieldValue) String() string {
	return strings.Join(f.in[f.name], ",")
}

func (f *fieldValue) Set(s string) error {
	if s == useDefault {
		if _, ok := f.in[f.name]; !ok {
			f.in[f.name] = []string{}
		}
		return nil
	}
	f.in[f.name] = append(f.in[f.name], s)
	return nil
}

func (f *fieldValue) Type() string {
	if f.list {
		return "stringArray"
	}
	return "string"
}

// bindFieldFlags adds one flag per schema field. Date fields with a default
// may be given bare (--assigned) and then take the default; a value for
// them must use the --field=value form.
func bindFieldFlags(fs *pflag.FlagSet, schema tarpit.Schema, in tarpit.Input) {
	for _, name := range schema.Names() {
		spec := schema.Fields[name]
		usage := spec.Desc
		if spec.Kind == tarpit.KindEnum {
			usage += " (" + strings.Join(spec.Enum, "|") + ")"
		}
		bare := spec.Kind == tarpit.KindDate && spec.Default != ""
		if bare {
			usage += " (bare flag means " + spec.Default + ")"
		}
		fs.Var(&fieldValue{name: name, list: spec.IsList(), in: in}, name, usage)
		if bare {
			fs.Lookup(name).NoOptDefVal = useDefault
		}
	}
}

// splitRemovals flattens repeated comma-separated --remove values
func splitRemovals(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, strings.ToLower(part))
			}
		}
	}
	return out
}
