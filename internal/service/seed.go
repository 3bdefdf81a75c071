package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

const storageCategory = "storage"

type seedProduct struct {
	title string
	price string
	img   string
}

var storageProducts = []seedProduct{
	{"Kingston A400 SATA SA400S37/480G", "22.99", "kingston-a400.webp"},
	{"Samsung 980 M.2 MZ-V8V250BW", "41.99", "samsung-980-250gb.webp"},
	{"WD Blue SN570 M.2 WDS100T3B0C", "89.99", "wd-blue.webp"},
	{"AMD Radeon SATA R5SL128G", "14.99", "amd-radeon.webp"},
	{"Netac SA500 SATA NT01SA500-1T0-S3X", "52.99", "netac-sa500.webp"},
	{"GIGABYTE SATA (GP-GSTFS31256GTND)", "24.99", "gigabyte-256gb.webp"},
	{"Patriot Memory SATA P210S512G25", "29.99", "patriot-p210.webp"},
	{"XPG SX6000 Lite M.2 SX6000", "34.99", "xpg-sx6000.webp"},
	{"Samsung 870 QVO SATA MZ-77Q1T0BW", "80.99", "samsung-870-qvo.webp"},
	{"Hikvision SATA HS-SSD-C100/120G", "13.99", "hikvision-120gb.webp"},
	{"Netac NV3000 M.2 NT01NV3000-500-E4X", "29.99", "netac-nv3000.webp"},
	{"HP S700 SATA 6MC15AA#ABB", "59.99", "hp-s700.webp"},
	{"ADATA Ultimate SU650 SATA ASU650SS-240GT-R", "19.99", "adata-su650.webp"},
	{"Apacer PANTHER 512 ГБ SATA AP512GAS350-1", "30.99", "apacer-panther.webp"},
	{"Crucial BX SATA CT240BX500SSD1", "26.99", "crucial-bx-240gb.webp"},
	{"KingSpec M.2 NT-256", "17.99", "kingspec-m2-256gb.webp"},
}

// Seeder fills an empty store with the admin account and the starter
// catalog. Running it again changes nothing.
type Seeder struct {
	Users         *UserService
	Catalog       *CatalogService
	AdminPassword string
}

func (s *Seeder) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("svc", "seed")

	password := s.AdminPassword
	if password == "" {
		password = "admin"
	}
	_, err := s.Users.Create(ctx, Profile{
		Firstname: "why",
		Lastname:  "not",
		Username:  "admin",
		Email:     "aminfury@mail.ru",
		Password:  password,
		Role:      models.RoleAdmin,
	})
	if err := skipExisting(err); err != nil {
		return err
	}

	_, err = s.Catalog.CreateCategory(ctx, storageCategory)
	if err := skipExisting(err); err != nil {
		return err
	}

	created := 0
	for _, sp := range storageProducts {
		price := decimal.RequireFromString(sp.price)
		_, err := s.Catalog.CreateProduct(ctx, ProductInput{
			Title:    sp.title,
			Category: storageCategory,
			Price:    &price,
			ImgName:  sp.img,
		})
		if err == nil {
			created++
		}
		if err := skipExisting(err); err != nil {
			return err
		}
	}

	l.Info("seed_completed", "products_created", created)
	return nil
}

func skipExisting(err error) error {
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	return err
}
