package inventory

import "github.com/erazemk/ifrit/internal/model"

// SampleData returns the starter catalog with ids numbered from 1.
func SampleData() []model.Item {
	items := []model.Item{
		{Name: "Final Fantasy VII (PS1) Black Label", Category: model.CategoryGames, Platform: "PS1", Year: model.Ptr(1997), Rarity: 4, Notes: "Completo, manual incluso"},
		{Name: "Final Fantasy VIII (PS1)", Category: model.CategoryGames, Platform: "PS1", Year: model.Ptr(1999), Rarity: 3, Notes: "Lacrado, selo original"},
		{Name: "Final Fantasy IX (PS1)", Category: model.CategoryGames, Platform: "PS1", Year: model.Ptr(2000), Rarity: 3},
		{Name: "Final Fantasy X (PS2)", Category: model.CategoryGames, Platform: "PS2", Year: model.Ptr(2001), Rarity: 2},
		{Name: "Final Fantasy XII Steelbook (PS2)", Category: model.CategoryGames, Platform: "PS2", Year: model.Ptr(2006), Rarity: 3},
		{Name: "Final Fantasy XIII Lightning Returns (PS3)", Category: model.CategoryGames, Platform: "PS3", Year: model.Ptr(2013), Rarity: 2},
		{Name: "Final Fantasy XV Royal Edition (PS4)", Category: model.CategoryGames, Platform: "PS4", Year: model.Ptr(2018), Rarity: 2},
		{Name: "Final Fantasy VII Remake Deluxe (PS4)", Category: model.CategoryGames, Platform: "PS4", Year: model.Ptr(2020), Rarity: 4, Notes: "Com artbook e trilha"},
		{Name: "Final Fantasy VII Rebirth (PS5)", Category: model.CategoryGames, Platform: "PS5", Year: model.Ptr(2024), Rarity: 4},
		{Name: "Final Fantasy XVI Deluxe (PS5)", Category: model.CategoryGames, Platform: "PS5", Year: model.Ptr(2023), Rarity: 4},

		{Name: "Dicionário de Lore — FF Compendium", Category: model.CategoryBooks, Platform: "Livro", Year: model.Ptr(2016), Rarity: 3},
		{Name: "Final Fantasy Ultimania Archive Vol. 1", Category: model.CategoryArtbooks, Platform: "Livro", Year: model.Ptr(2018), Rarity: 4},
		{Name: "Final Fantasy Ultimania Archive Vol. 2", Category: model.CategoryArtbooks, Platform: "Livro", Rarity: 0},
		{Name: "Final Fantasy Ultimania Archive Vol. 3", Category: model.CategoryArtbooks, Platform: "Livro", Rarity: 0},
		{Name: "Final Fantasy VII Remake Material Ultimania", Category: model.CategoryArtbooks, Platform: "Livro", Year: model.Ptr(2020), Rarity: 5},

		{Name: "OST Final Fantasy VII Vinyl", Category: model.CategorySoundtracks, Platform: "Merch", Year: model.Ptr(2019), Rarity: 4},
		{Name: "FFXIV Shadowbringers OST", Category: model.CategorySoundtracks, Platform: "Merch", Year: model.Ptr(2019), Rarity: 3},

		{Name: "Prêmio A: Figura de Cloud Strife", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 5, LotteryOrder: model.Ptr(1)},
		{Name: "Prêmio B: Figura de Aerith Gainsborough", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 5, LotteryOrder: model.Ptr(2)},
		{Name: "Prêmio B: Livro-guia turístico de Midgar", Category: model.CategoryLotteryVII, Platform: "Livro", Year: model.Ptr(2020), Rarity: 4, LotteryOrder: model.Ptr(3)},
		{Name: "Prêmio C: Pelúcia de Moogle", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 4, LotteryOrder: model.Ptr(4)},
		{Name: "Prêmios D: Pin badges (pacotes surpresa)", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 3, LotteryOrder: model.Ptr(5)},
		{Name: "Prêmio E: Copo de vidro — Cloud", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 2, LotteryOrder: model.Ptr(6)},
		{Name: "Prêmio E: Copo de vidro — Tifa", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 2, LotteryOrder: model.Ptr(7)},
		{Name: "Prêmio E: Copo de vidro — Shinra", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 2, LotteryOrder: model.Ptr(8)},
		{Name: "Prêmio E: Copo de vidro — Buster Sword", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 2, LotteryOrder: model.Ptr(9)},
		{Name: "Prêmio E: Copo de vidro — Meteor", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 2, LotteryOrder: model.Ptr(10)},
		{Name: "Prêmio F: Toalha de mão — Modelo 1", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 1, LotteryOrder: model.Ptr(11)},
		{Name: "Prêmio F: Toalha de mão — Modelo 2", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 1, LotteryOrder: model.Ptr(12)},
		{Name: "Prêmio F: Toalha de mão — Modelo 3", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 1, LotteryOrder: model.Ptr(13)},
		{Name: "Prêmio F: Toalha de mão — Modelo 4", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 1, LotteryOrder: model.Ptr(14)},
		{Name: "Prêmios G: Mini-figurinas retrô poligonais (pacote surpresa)", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 1, LotteryOrder: model.Ptr(15)},
		{Name: "Prêmio Raro (End Prize): Figura de Sephiroth", Category: model.CategoryLotteryVII, Platform: "Merch", Year: model.Ptr(2020), Rarity: 5, LotteryOrder: model.Ptr(16), Notes: "End Prize — referência: aitaikuji.com"},

		{Name: "Prêmio A: Figure (1 design)", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 5, LotteryOrder: model.Ptr(1)},
		{Name: "Prêmio B: Figure Collection — Ifrit", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(2)},
		{Name: "Prêmio B: Figure Collection — Phoenix", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(3)},
		{Name: "Prêmio B: Figure Collection — Shiva", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(4)},
		{Name: "Prêmio B: Figure Collection — Ramuh", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(5)},
		{Name: "Prêmio B: Figure Collection — Garuda", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(6)},
		{Name: "Prêmio B: Figure Collection — Titan", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(7)},
		{Name: "Prêmio B: Figure Collection — Bahamut", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(8)},
		{Name: "Prêmio B: Figure Collection — Odin", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 4, LotteryOrder: model.Ptr(9)},
		{Name: "Prêmio C: Glass Collection (1 par)", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 3, LotteryOrder: model.Ptr(10)},
		{Name: "Prêmio D: Coaster Collection (5 designs)", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 3, LotteryOrder: model.Ptr(11)},
		{Name: "Prêmio E: Acrylic Stand (3 designs)", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 2, LotteryOrder: model.Ptr(12)},
		{Name: "Prêmio F: Magnets (8 designs)", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 2, LotteryOrder: model.Ptr(13)},
		{Name: "Prêmio G: Visual Clear Mat (3 designs)", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 1, LotteryOrder: model.Ptr(14)},
		{Name: "Prêmio Last: Shiva Silver Figure", Category: model.CategoryLotteryXVI, Platform: "Merch", Year: model.Ptr(2023), Rarity: 5, LotteryOrder: model.Ptr(15)},

		{Name: "Prêmio A: Pelúcia do Vivi (50 cm)", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 5, LotteryOrder: model.Ptr(1)},
		{Name: "Prêmio B: Trilha Chiptune em CD", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 4, LotteryOrder: model.Ptr(2)},
		{Name: "Prêmio C: Capa de caixa de lenços (couro sintético)", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 3, LotteryOrder: model.Ptr(3)},
		{Name: "Prêmio D: Mini prato — arte de Itahana (1 de 4)", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 3, LotteryOrder: model.Ptr(4)},
		{Name: "Prêmio E: Conjunto de cartões postais (1 de 5) + envelope Mognet", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 2, LotteryOrder: model.Ptr(5)},
		{Name: "Prêmio F: Chaveiro de borracha (1 de 10)", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 1, LotteryOrder: model.Ptr(6)},
		{Name: "Prêmio Last: Tela F3 com arte do elenco (Itahana)", Category: model.CategoryLotteryIX, Platform: "Merch", Year: model.Ptr(2025), Rarity: 5, LotteryOrder: model.Ptr(7)},

		{Name: "Deck Tetra Master (FFIX)", Category: model.CategoryCards, Platform: "Merch", Year: model.Ptr(2000), Rarity: 4},
		{Name: "Triple Triad Collection (FFVIII)", Category: model.CategoryCards, Platform: "Merch", Year: model.Ptr(1999), Rarity: 4},
		{Name: "Pelúcia Moogle", Category: model.CategoryMerch, Platform: "Merch", Year: model.Ptr(2015), Rarity: 2},
		{Name: "Keychain Cactuar", Category: model.CategoryMerch, Platform: "Merch", Year: model.Ptr(2018), Rarity: 1},
	}
	for i := range items {
		items[i].ID = int64(i + 1)
	}
	return items
}
