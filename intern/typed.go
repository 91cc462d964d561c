package intern

// BlockTypeID, ItemTypeID, TagID, BiomeID and SoundSetID are distinct
// newtypes over the same underlying Interner so that the compiler
// disambiguates, for instance, a block type ID from an item type ID even
// though both are backed by the same global string table.

// BlockTypeID identifies a registered block type.
type BlockTypeID ID

// AirBlockType is the block type ID reserved for air.
const AirBlockType BlockTypeID = BlockTypeID(Air)

// Name resolves id back to its registered string.
func (id BlockTypeID) Name() string { return global.MustLookup(ID(id)) }

// BlockType interns name as a BlockTypeID.
func BlockType(name string) BlockTypeID { return BlockTypeID(global.Intern(name)) }

// ItemTypeID identifies a registered item type.
type ItemTypeID ID

func (id ItemTypeID) Name() string   { return global.MustLookup(ID(id)) }
func ItemType(name string) ItemTypeID { return ItemTypeID(global.Intern(name)) }

// TagID identifies a block/item tag (e.g. "mineable/pickaxe").
type TagID ID

func (id TagID) Name() string { return global.MustLookup(ID(id)) }
func Tag(name string) TagID   { return TagID(global.Intern(name)) }

// BiomeID identifies a biome.
type BiomeID ID

func (id BiomeID) Name() string { return global.MustLookup(ID(id)) }
func Biome(name string) BiomeID { return BiomeID(global.Intern(name)) }

// SoundSetID identifies a set of sounds associated with a block or event.
type SoundSetID ID

func (id SoundSetID) Name() string     { return global.MustLookup(ID(id)) }
func SoundSet(name string) SoundSetID { return SoundSetID(global.Intern(name)) }
