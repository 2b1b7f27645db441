// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"github.com/alanz0209/KisCoutureApp/couturesync"
)

// mergeCollections combines the post-remap local collection with the
// authoritative server snapshot.
//
// The result starts as a copy of the server snapshot. Local records that
// still carry a temporary id (their upload did not succeed) are kept as
// unsynced records, unless the type has a natural key and an equivalent
// record already exists server-side, in which case the local duplicate is
// dropped. Local records sharing an id with a server record resolve by
// last-write-wins on ModifiedAt, with ties going to the server so repeated
// merges never oscillate. Local records with a real id unknown to the server
// are carried over unchanged.
func mergeCollections[T any, PT recordPtr[T]](local, server []T) []T {
	merged := make([]T, len(server))
	copy(merged, server)

	serverIdx := make(map[string]int, len(server))
	serverKeys := make(map[string]bool)
	for i := range merged {
		p := PT(&merged[i])
		p.SetSource(couturesync.SyncSourceOnline)
		serverIdx[p.RecordID()] = i
		if k := p.NaturalKey(); k != "" {
			serverKeys[k] = true
		}
	}

	for i := range local {
		lp := PT(&local[i])
		id := lp.RecordID()

		if couturesync.IsTempID(id) {
			if k := lp.NaturalKey(); k != "" && serverKeys[k] {
				// An equivalent record already exists server-side; drop the
				// local duplicate rather than re-uploading it forever.
				continue
			}
			merged = append(merged, local[i])
			continue
		}

		j, ok := serverIdx[id]
		if !ok {
			merged = append(merged, local[i])
			continue
		}
		if lp.ModifiedAt().After(PT(&merged[j]).ModifiedAt()) {
			merged[j] = local[i]
			PT(&merged[j]).SetSource(couturesync.SyncSourceOnline)
		}
		// Equal or older timestamps: the server version stands.
	}

	return merged
}
