/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mandatuvideo/internal/form"
	"mandatuvideo/internal/submission"
)

func newFormCommand(ctx *commandContext) *cobra.Command {
	var (
		strict   bool
		envelope bool
		submit   bool
	)
	cmd := &cobra.Command{
		Use:   "form <file.yaml>",
		Short: "Build a transcript from a filled-in form",
		Long: "Reads a YAML form (usuario, scenes with place and dialogues) and prints its transcript.\n" +
			"--envelope prints the pending submission envelope instead; --submit stores it in the record store.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read form: %w", err)
			}
			st, err := form.Load(data)
			if err != nil {
				return err
			}
			if strict {
				if err := st.Check(form.DefaultChoices()); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			if !envelope && !submit {
				text, err := st.Transcript()
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
				return nil
			}
			env, err := st.Envelope(time.Now())
			if err != nil {
				return err
			}
			b, err := submission.Encode(env)
			if err != nil {
				return err
			}
			if err := submission.Validate(submission.SchemaEnvelope, b); err != nil {
				return err
			}
			if !submit {
				_, err := out.Write(b)
				return err
			}
			key := submission.Key(env.Usuario, env.Momento, uuid.NewString())
			return ctx.withRecords(cmd.Context(), func(r *records) error {
				if err := r.Put(cmd.Context(), key, b); err != nil {
					return err
				}
				if c := ctx.openContent(); c != nil {
					if err := c.WriteFile(cmd.Context(), key+".json", b); err != nil {
						return err
					}
				}
				fmt.Fprintln(out, key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject places, characters and emotions the form does not offer")
	cmd.Flags().BoolVar(&envelope, "envelope", false, "Print the submission envelope as JSON")
	cmd.Flags().BoolVar(&submit, "submit", false, "Store the envelope as a pending submission")
	return cmd
}
