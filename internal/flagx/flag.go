// Package flagx lets several components parse their own flags out of one
// shared os.Args without tripping over each other's unknown flags.
package flagx

import (
	"flag"
	"strings"
)

// Filter keeps only a known set of flags from an argument list.
//
// Valued flags may be written as "-f value" or "-f=value". Switches are
// boolean flags: they never consume the following argument, so "-l -a x"
// keeps "-a x" intact. A switch can still be given an explicit value with
// "-l=false".
type Filter struct {
	valued   map[string]struct{}
	switches map[string]struct{}
}

// NewFilter builds a Filter for the given valued flags and switches.
// Names include their leading dashes, e.g. "-c" or "--config".
func NewFilter(valued []string, switches ...string) *Filter {
	f := &Filter{
		valued:   make(map[string]struct{}, len(valued)),
		switches: make(map[string]struct{}, len(switches)),
	}
	for _, name := range valued {
		f.valued[name] = struct{}{}
	}
	for _, name := range switches {
		f.switches[name] = struct{}{}
	}
	return f
}

func (f *Filter) known(name string) bool {
	if _, ok := f.valued[name]; ok {
		return true
	}
	_, ok := f.switches[name]
	return ok
}

// Apply returns the subset of args made of known flags and their values.
// The result is never nil.
func (f *Filter) Apply(args []string) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if f.known(name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := f.switches[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := f.valued[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// FilterArgs is shorthand for NewFilter(allowedFlags).Apply(args).
func FilterArgs(args []string, allowedFlags []string) []string {
	return NewFilter(allowedFlags).Apply(args)
}

// JsonConfigFlags returns the config file path given with -c or -config in
// args (usually os.Args[1:]), or "" when neither is present. When both are
// given the last one wins.
func JsonConfigFlags(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}
