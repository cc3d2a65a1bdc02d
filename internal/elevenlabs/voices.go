package elevenlabs

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// PreviewText is spoken when previewing a voice.
const PreviewText = "Hello, this is a preview of my voice."

// Voices is the selectable voice catalog. The first entry is the default.
var Voices = []model.Voice{
	{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Description: "Calm, American"},
	{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Description: "Deep, Narrative"},
	{ID: "EXAVITQu4Tvr4xnSDxMaL", Name: "Bella", Description: "Clear, American"},
	{ID: "MF3mGyEYCl7XYWbV9V6O", Name: "Elli", Description: "Emotional, Young"},
	{ID: "TxGEqnHWFrWFTVcgV1eT", Name: "Josh", Description: "Deep, American"},
	{ID: "jsCqWAovK2LkecY7zXl4", Name: "Freya", Description: "Crisp, British"},
	{ID: "pMsXgVXv3BLzUgSXRplE", Name: "Serena", Description: "Pleasant, British"},
	{ID: "piTKgcLEGmPE4e6mEKli", Name: "Nicole", Description: "Calm, Australian"},
}

// LookupVoice finds a catalog voice by ID or case-insensitive name.
func LookupVoice(idOrName string) (model.Voice, error) {
	for _, v := range Voices {
		if v.ID == idOrName || strings.EqualFold(v.Name, idOrName) {
			return v, nil
		}
	}
	return model.Voice{}, fmt.Errorf("unknown voice %q", idOrName)
}

// VoiceName returns the catalog name of id, or id itself when it is not in the catalog.
func VoiceName(id string) string {
	if v, err := LookupVoice(id); err == nil {
		return v.Name
	}
	return id
}
