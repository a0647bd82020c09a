// SPDX-License-Identifier: MIT

package catalog

var defaultGroups = map[string][]string{
	"Cams": {
		"@CGTNEurope",
		"@DDCyprus1Click",
		"@intelcamslive",
		"@SourceGlobal",
	},
	"News": {
		"@ABCNews",
		"@AlJazeera",
		"@AlJazeeraEnglish",
		"@AssociatedPress",
		"@CNNbrasil",
		"@CRUXnews",
		"@France24_en",
		"@LiveNowFox",
		"@NBCNews",
		"@Reuters",
		"@SkyNews",
		"@WION",
	},
	"Rap": {
		"@RapMafia",
	},
	"Synthwave": {
		"@80sNeonWave",
		"@DjScenester",
		"@LofiGirl",
		"@NightRideFM",
		"@StarBurstMusic",
		"@ThePrimeThanatos",
		"@VibeRetro",
	},
	"Tornados": {
		"@MaxVelocityWX",
		"@ReedTimmerWx",
		"@RyanHallYall",
	},
	"YouTubers": {
		"@Vaush",
	},
}

// Default returns the built-in catalog used when no catalog file is configured.
func Default() *Catalog {
	c, err := New(defaultGroups)
	if err != nil {
		panic("catalog: built-in catalog is invalid: " + err.Error())
	}
	return c
}
