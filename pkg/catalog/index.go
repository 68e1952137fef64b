package catalog

import (
	"strconv"
	"strings"
)

// ArtistIndex is the list of artists from one collection with lookups by id
// and name. It is a value owned by the caller; nothing in the package keeps
// a copy.
type ArtistIndex struct {
	artists []Artist
	byID    map[int]int
	byName  map[string]int
}

// NewArtistIndex indexes artists in order. On duplicate ids or names the
// first record wins.
func NewArtistIndex(artists []Artist) ArtistIndex {
	idx := ArtistIndex{
		artists: artists,
		byID:    make(map[int]int, len(artists)),
		byName:  make(map[string]int, len(artists)),
	}
	for i, a := range artists {
		if a.ID != 0 {
			if _, dup := idx.byID[a.ID]; !dup {
				idx.byID[a.ID] = i
			}
		}
		if _, dup := idx.byName[a.Nombre]; !dup {
			idx.byName[a.Nombre] = i
		}
	}
	return idx
}

// All returns the artists in collection order.
func (idx ArtistIndex) All() []Artist {
	return idx.artists
}

// Len returns the number of artists.
func (idx ArtistIndex) Len() int {
	return len(idx.artists)
}

// ByID looks an artist up by id.
func (idx ArtistIndex) ByID(id int) (Artist, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Artist{}, false
	}
	return idx.artists[i], true
}

// ByName looks an artist up by exact name, then case-insensitively.
func (idx ArtistIndex) ByName(name string) (Artist, bool) {
	if i, ok := idx.byName[name]; ok {
		return idx.artists[i], true
	}
	for _, a := range idx.artists {
		if strings.EqualFold(a.Nombre, strings.TrimSpace(name)) {
			return a, true
		}
	}
	return Artist{}, false
}

// Lookup resolves an option key produced by OptionKey.
func (idx ArtistIndex) Lookup(key string) (Artist, bool) {
	if id, err := strconv.Atoi(key); err == nil {
		if a, ok := idx.ByID(id); ok {
			return a, true
		}
	}
	return idx.ByName(key)
}

// OptionKey identifies an artist in a selection list: the id when set,
// otherwise the name.
func OptionKey(a Artist) string {
	if a.ID != 0 {
		return strconv.Itoa(a.ID)
	}
	return a.Nombre
}
