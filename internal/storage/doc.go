/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements local persistence for submissions and rendered
// scripts. Records are opaque JSON documents addressed by key; a key ending in
// "_RENDERIZAR" names a rendered record.
//
// DirStore mirrors the original dialog_data/ and dialog_data_processed/
// layout with transactional temp+rename writes. SQLiteStore keeps the same
// records in an embedded SQLite database. DirContent is the local content store
// the intake server and the batch driver publish files to.
package storage
