package species

// Category groups species that share a max-HP multiplier.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryFarm
	CategoryTiny
	CategoryPest
	CategorySmall
	CategoryMid
	CategoryElite
	CategorySlime
	CategoryBoss
)

var categoryNames = [...]string{
	CategoryUnknown: "unknown",
	CategoryFarm:    "farm",
	CategoryTiny:    "tiny",
	CategoryPest:    "pest",
	CategorySmall:   "small",
	CategoryMid:     "mid",
	CategoryElite:   "elite",
	CategorySlime:   "slime",
	CategoryBoss:    "boss",
}

func (c Category) String() string {
	if int(c) >= len(categoryNames) {
		return categoryNames[CategoryUnknown]
	}
	return categoryNames[c]
}

var categories = map[Species]Category{
	Sheep: CategoryFarm, Cow: CategoryFarm, Pig: CategoryFarm, Mule: CategoryFarm,
	Mooshroom: CategoryFarm, Horse: CategoryFarm, SkeletonHorse: CategoryFarm,
	Squid: CategoryFarm, Donkey: CategoryFarm, Dolphin: CategoryFarm, Turtle: CategoryFarm,
	Villager: CategoryFarm, ZombieHorse: CategoryFarm, TraderLlama: CategoryFarm,
	WanderingTrader: CategoryFarm,

	Ocelot: CategoryTiny, Parrot: CategoryTiny, TropicalFish: CategoryTiny,
	SnowGolem: CategoryTiny, Chicken: CategoryTiny, Rabbit: CategoryTiny,
	Salmon: CategoryTiny, Bat: CategoryTiny, Cat: CategoryTiny, Cod: CategoryTiny,

	Silverfish: CategoryPest, Bee: CategoryPest, Vex: CategoryPest,
	Endermite: CategoryPest, Pufferfish: CategoryPest,

	Creeper: CategorySmall, Evoker: CategorySmall, Spider: CategorySmall,
	CaveSpider: CategorySmall, Shulker: CategorySmall, Phantom: CategorySmall,
	Ghast: CategorySmall, PolarBear: CategorySmall, Panda: CategorySmall,
	Fox: CategorySmall, Wolf: CategorySmall, Llama: CategorySmall,

	Husk: CategoryMid, Zombie: CategoryMid, ZombieVillager: CategoryMid,
	Drowned: CategoryMid, Skeleton: CategoryMid, Stray: CategoryMid,
	Blaze: CategoryMid, Illusioner: CategoryMid, PigZombie: CategoryMid,
	Vindicator: CategoryMid, Pillager: CategoryMid, Guardian: CategoryMid,
	Witch: CategoryMid,

	Enderman: CategoryElite, WitherSkeleton: CategoryElite,
	Ravager: CategoryElite, IronGolem: CategoryElite,

	Slime: CategorySlime, MagmaCube: CategorySlime,

	EnderDragon: CategoryBoss, Wither: CategoryBoss, Giant: CategoryBoss,
}

// HPCategory returns the multiplier group for s; CategoryUnknown when s has none.
func HPCategory(s Species) Category {
	return categories[s]
}

func IsBoss(s Species) bool {
	switch s {
	case Wither, EnderDragon, Giant:
		return true
	}
	return false
}

// IsMonster reports hostile species whose name tag is drawn in the hostile color.
// Flying, slime-like and golem-like hostiles are not monsters.
func IsMonster(s Species) bool {
	switch s {
	case Zombie, ZombieVillager, Husk, Drowned, Skeleton, Stray, WitherSkeleton,
		Spider, CaveSpider, Creeper, Enderman, Endermite, Silverfish, Witch,
		Guardian, ElderGuardian, Blaze, PigZombie, Wither, Vex, Vindicator,
		Evoker, Illusioner, Pillager, Ravager, Giant:
		return true
	}
	return false
}

func IsTameable(s Species) bool {
	switch s {
	case Wolf, Cat, Parrot, Horse, SkeletonHorse, ZombieHorse, Llama, Mule, Donkey:
		return true
	}
	return false
}

func IsZombieFamily(s Species) bool {
	switch s {
	case Zombie, ZombieVillager, Husk, Drowned:
		return true
	}
	return false
}

// Tracked reports whether the engine keeps statistics for s.
func Tracked(s Species) bool {
	return s != Player && s != ArmorStand
}
