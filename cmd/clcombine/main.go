// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command clcombine concatenates OpenCL kernel fragments into a single
// source file.
package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/clcombine/cmdutil"
	"github.com/grailbio/clcombine/combine"
	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
	"github.com/grailbio/clcombine/file/s3file"
	"github.com/grailbio/clcombine/fragments"
	"github.com/grailbio/clcombine/log"
	"v.io/x/lib/cmdline"
)

// flags holds the command line flags of one clcombine command.
type flags struct {
	output, manifest, dir string
	binary                bool
}

func newCmdRoot() *cmdline.Command {
	f := new(flags)
	cmd := &cmdline.Command{
		Runner: cmdutil.RunnerFunc(func(ctx context.Context, env *cmdline.Env, args []string) error {
			return run(ctx, env, args, f)
		}),
		Name:   "clcombine",
		Short:  "Concatenates OpenCL kernel fragments into one file",
		Long: `
Command clcombine concatenates kernel header (.clh) and source (.clc)
fragments, in order, into a single file that can be handed to the OpenCL
compiler. Fragments are copied verbatim with no separators.

The fragments are taken from the arguments if any are given, otherwise from
the file named by -manifest (one path per line, '#' starts a comment),
otherwise from the built-in list of CLUniversalHeader.clh through
CLBoundaries.clc. Entries may be glob patterns as defined in
https://github.com/gobwas/glob, and may name S3 objects (s3://bucket/key).

Example:

  clcombine -dir kernels -output kernels/combined.cl
`,
		ArgsName: "[fragment ...]",
	}
	cmd.Flags.StringVar(&f.output, "output", fragments.DefaultOutput, "File to write the combined fragments to.")
	cmd.Flags.StringVar(&f.manifest, "manifest", "", "File listing the fragments to combine, one per line.")
	cmd.Flags.StringVar(&f.dir, "dir", "", "Directory that relative fragment paths are resolved against.")
	cmd.Flags.BoolVar(&f.binary, "binary", false, "Do not require fragments to be valid UTF-8.")
	return cmd
}

func run(ctx context.Context, env *cmdline.Env, args []string, f *flags) error {
	var inputs []string
	switch {
	case len(args) > 0 && f.manifest != "":
		return errors.E(errors.Invalid, "fragments may not be given both as arguments and with -manifest")
	case len(args) > 0:
		inputs = args
	case f.manifest != "":
		var err error
		if inputs, err = fragments.ReadManifest(ctx, f.manifest); err != nil {
			return err
		}
	default:
		inputs = fragments.Default
	}
	inputs, err := fragments.Expand(ctx, fragments.Resolve(f.dir, inputs))
	if err != nil {
		return err
	}
	if err := combine.Combine(ctx, inputs, f.output, combine.Opts{Binary: f.binary}); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Combined files: %v into %s\n", inputs, f.output)
	return nil
}

func main() {
	log.AddFlags()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
	cmdline.Main(newCmdRoot())
}
