/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// PPEffect is the camera effect that is rendered together with the speaking
// character's name.
const PPEffect = "PP"

// Catalogs are the fixed lists staging annotations are drawn from.
type Catalogs struct {
	Durations     []string
	Actions       []string
	CameraEffects []string
}

// DefaultCatalogs returns a fresh copy of the built-in catalogs.
func DefaultCatalogs() Catalogs {
	return Catalogs{
		Durations: []string{
			"3 segundos",
			"4 segundos",
			"5 segundos",
			"6 segundos",
			"7 segundos",
		},
		Actions: []string{
			"Se inclina hacia la cámara",
			"Se frota los ojos",
			"Se lleva la mano a la cabeza",
			"Se endereza de golpe",
			"Respira hondo",
			"Se agarra la cabeza",
			"Evita el contacto visual",
			"Cruza los brazos",
			"Hace gestos con las manos",
			"Forza una sonrisa",
		},
		CameraEffects: []string{
			PPEffect,
			"PA-D*1.2",
			"PA-I*1.2",
			"ZI*1.5",
			"ES",
			"ZO*1.5",
			"PA-D*1.3",
			"PA-I*1.3",
		},
	}
}

// OrDefaults replaces empty catalogs with the built-in ones.
func (c Catalogs) OrDefaults() Catalogs {
	d := DefaultCatalogs()
	if len(c.Durations) > 0 {
		d.Durations = c.Durations
	}
	if len(c.Actions) > 0 {
		d.Actions = c.Actions
	}
	if len(c.CameraEffects) > 0 {
		d.CameraEffects = c.CameraEffects
	}
	return d
}
