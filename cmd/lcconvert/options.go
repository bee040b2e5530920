package main

import (
	"errors"

	"github.com/akamensky/argparse"

	"github.com/okian/lcarchive/internal/adapters/repository"
)

// Options holds the command line of lcconvert.
type Options struct {
	In       *string
	Out      *string
	Source   *string
	LogLevel *string
	parser   *argparse.Parser
}

// NewOptions parses args, which include the program name.
func NewOptions(args []string) (*Options, error) {
	o := &Options{}

	parser := argparse.NewParser("lcconvert", "Convert a directory light-curve archive to a SQLite archive")
	o.In = parser.String("i", "in", &argparse.Options{
		Required: true,
		Help:     "Directory archive holding catalog.csv and lightcurves/",
	})
	o.Out = parser.String("o", "out", &argparse.Options{
		Required: true,
		Help:     "SQLite file to create; must not exist",
	})
	o.Source = parser.Selector("s", "source", []string{repository.QSOSource.Name, repository.VarSource.Name}, &argparse.Options{
		Help:    "Catalog kind, selects the light-curve key column",
		Default: repository.QSOSource.Name,
	})
	o.LogLevel = parser.Selector("l", "log-level", []string{"debug", "info", "warn", "error"}, &argparse.Options{
		Help:    "Log verbosity",
		Default: "info",
	})

	o.parser = parser
	if err := parser.Parse(args); err != nil {
		return o, err
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// Validate checks flag combinations argparse cannot express.
func (o *Options) Validate() error {
	if *o.In == *o.Out {
		return errors.New("--in and --out must differ")
	}
	return nil
}

// Usage renders the help text with err on top.
func (o *Options) Usage(err error) string {
	return o.parser.Usage(err)
}

// CatalogSource returns the catalog description named by --source.
func (o *Options) CatalogSource() repository.Source {
	if *o.Source == repository.VarSource.Name {
		return repository.VarSource
	}
	return repository.QSOSource
}
