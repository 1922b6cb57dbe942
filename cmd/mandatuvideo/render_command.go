/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"mandatuvideo/internal/export"
	"mandatuvideo/internal/script"
	"mandatuvideo/internal/submission"
	"mandatuvideo/internal/telemetry"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		seed        uint64
		pdfPath     string
		numberLines bool
		inline      bool
		envelope    bool
		copyOut     bool
	)
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a transcript (or a submission envelope) to stdout",
		Long: "Reads a transcript from file, or stdin when file is omitted or \"-\", and prints the shooting script.\n" +
			"With --envelope the input is a submission envelope and the rendered record is printed as JSON.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cfg := ctx.config
			opts := cfg.Render.Options()
			if cmd.Flags().Changed("number-lines") {
				opts.NumberLines = numberLines
			}
			if cmd.Flags().Changed("inline") && inline {
				opts.Onomatopoeia = script.OnomatopoeiaInline
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Render.Seed
			}
			rnd := script.DefaultRandSource()
			if seed != 0 {
				rnd = script.NewRandSource(seed)
			}
			parser := script.Parser{Labels: cfg.Render.Labels}
			renderer := script.Renderer{Rand: rnd, Catalogs: script.DefaultCatalogs(), Options: opts}

			title := "script"
			var content string
			out := cmd.OutOrStdout()
			if envelope {
				env, err := submission.Decode(in)
				if err != nil {
					return err
				}
				res, err := submission.Transformer{Parser: parser, Renderer: renderer}.Transform(env)
				if err != nil {
					return err
				}
				if res == nil {
					return errors.New("submission is not pending (otros.transformado is not \"false\")")
				}
				b, err := submission.Encode(res.Rendered)
				if err != nil {
					return err
				}
				if _, err := out.Write(b); err != nil {
					return err
				}
				title, content = res.Rendered.Title, res.Rendered.Content
			} else {
				content = script.Transform(parser, renderer, string(in))
				fmt.Fprintln(out, content)
			}
			if copyOut {
				if err := clipboard.WriteAll(content); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "clipboard unavailable: %v\n", err)
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), "script copied to clipboard")
				}
			}
			telemetry.Event(telemetry.EventRender, map[string]any{"envelope": envelope, "pdf": pdfPath != ""})

			if pdfPath != "" {
				pages, err := export.SaveScriptPDF(pdfPath, title, content, export.PDFOptions{PageNumbers: true})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d pages)\n", pdfPath, pages)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the staging annotations (0 = random)")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also write the script as a PDF to this path")
	cmd.Flags().BoolVar(&numberLines, "number-lines", false, "Number wrapped dialogue lines")
	cmd.Flags().BoolVar(&inline, "inline", false, "Fold onomatopoeia into the last dialogue line")
	cmd.Flags().BoolVar(&envelope, "envelope", false, "Input is a submission envelope (JSON)")
	cmd.Flags().BoolVar(&copyOut, "copy", false, "Also copy the rendered script to the clipboard")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}
