package host

import "strings"

// Biome is a closed tag; only the end biomes are consulted by level rules.
type Biome string

const (
	BiomeTheEnd          Biome = "THE_END"
	BiomeEndHighlands    Biome = "END_HIGHLANDS"
	BiomeEndMidlands     Biome = "END_MIDLANDS"
	BiomeSmallEndIslands Biome = "SMALL_END_ISLANDS"
	BiomeEndBarrens      Biome = "END_BARRENS"

	BiomePlains       Biome = "PLAINS"
	BiomeForest       Biome = "FOREST"
	BiomeDesert       Biome = "DESERT"
	BiomeOcean        Biome = "OCEAN"
	BiomeSnowyTundra  Biome = "SNOWY_TUNDRA"
	BiomeMountains    Biome = "MOUNTAINS"
	BiomeSwamp        Biome = "SWAMP"
	BiomeNetherWastes Biome = "NETHER_WASTES"
)

var biomes = map[Biome]bool{
	BiomeTheEnd: true, BiomeEndHighlands: true, BiomeEndMidlands: true,
	BiomeSmallEndIslands: true, BiomeEndBarrens: true,
	BiomePlains: true, BiomeForest: true, BiomeDesert: true, BiomeOcean: true,
	BiomeSnowyTundra: true, BiomeMountains: true, BiomeSwamp: true,
	BiomeNetherWastes: true,
}

func ParseBiome(s string) (Biome, bool) {
	b := Biome(strings.ToUpper(strings.TrimSpace(s)))
	return b, biomes[b]
}
