/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package form

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Choices are the values offered by the form's drop-downs.
type Choices struct {
	Places        []string
	Characters    []string
	Emotions      []string
	Onomatopoeias []string
}

// DefaultChoices returns the catalogs of the web form.
func DefaultChoices() Choices {
	return Choices{
		Places:     []string{"Cafetería", "Calle", "Oficina", "Elevador", "Parque", "Pasillo", "Puerta", "Sala", "Tren"},
		Characters: []string{"Gata", "Conejo", "Cactus", "Pata", "Coneja", "Kiwi", "Pato", "Pollo", "RR", "Roca"},
		Emotions:   []string{"Feliz", "Triste", "Enojado", "Sorprendido", "Nervioso", "Confundido", "Serio"},
		Onomatopoeias: []string{
			"Snif, snif", "Cof, cof", "¿Eh?", "Zzzz", "Hmm", "Shhh", "Jaja", "Ay", "Eh", "¡Uh!",
			"Bu", "Uh-oh", "Tsk, tsk", "Huh", "Brrr", "Achoo", "Boo", "Ahhhh", "Yay", "Eek",
			"Psst", "Ugh", "¡Aha!", "Wow", "¡Ah...!", "Gruñido", "Braaaack", "Prrrrt", "Dum!", "Bip bip",
			":(", "...",
		},
	}
}

// Check reports every non-blank selection that is not offered by c.
// Blank selections are allowed; Transcript fills them in.
func (s State) Check(c Choices) error {
	var errs []error
	for i, sc := range s.Scenes {
		if !allowed(c.Places, sc.Place) {
			errs = append(errs, fmt.Errorf("scene %d: unknown place %q", i+1, sc.Place))
		}
		for j, d := range sc.Dialogues {
			if !allowed(c.Characters, d.Character) {
				errs = append(errs, fmt.Errorf("scene %d dialogue %d: unknown character %q", i+1, j+1, d.Character))
			}
			if !allowed(c.Emotions, d.Emotion) {
				errs = append(errs, fmt.Errorf("scene %d dialogue %d: unknown emotion %q", i+1, j+1, d.Emotion))
			}
			if !allowed(c.Onomatopoeias, d.Onomatopoeia) {
				errs = append(errs, fmt.Errorf("scene %d dialogue %d: unknown onomatopoeia %q", i+1, j+1, d.Onomatopoeia))
			}
		}
	}
	return errors.Join(errs...)
}

func allowed(catalog []string, v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || slices.Contains(catalog, v)
}
