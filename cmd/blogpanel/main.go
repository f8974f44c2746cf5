package main

import (
	"log"
	"strings"

	"github.com/oshiro/blogpanel"
)

func main() {
	cfg := blogpanel.Config{
		Addr:           blogpanel.EnvOr("BLOGPANEL_ADDR", ":8080"),
		DatabasePath:   blogpanel.EnvOr("BLOGPANEL_DB_PATH", "data/blog.db"),
		BlobDir:        blogpanel.EnvOr("BLOGPANEL_BLOB_DIR", "public"),
		PublicBaseURL:  blogpanel.MustEnv("BLOGPANEL_PUBLIC_BASE_URL"),
		IdentityAPIKey: blogpanel.MustEnv("BLOGPANEL_IDENTITY_API_KEY"),
		Production:     blogpanel.EnvOr("BLOGPANEL_ENV", "development") == "production",
	}
	if origins := blogpanel.EnvOr("BLOGPANEL_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	app := blogpanel.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
