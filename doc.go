// Package envsmith loads, resolves, and validates environment-variable
// configuration from .env files.
//
// The resolution pipeline has five stages: parsing, precedence merging,
// variable expansion, secret resolution, and schema validation. Each stage
// consumes one immutable map and produces a new one.
//
// Basic usage:
//
//	env, err := envsmith.LoadEnv([]string{".env", ".env.local"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	schema, err := envsmith.LoadSchema("envsmith.schema.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg, err := envsmith.ValidateEnv(schema, env)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port := cfg.Int("PORT")
//
// Values may reference other keys (DATABASE_URL=postgres://${DB_HOST}/app)
// and secrets (API_KEY=secret://file/./secrets/api.key). References are
// expanded transitively with cycle detection; secret URIs are dispatched to
// registered providers by scheme.
//
// Hot reloading:
//
//	w, err := envsmith.Watch(".env", func(r envsmith.Reload) {
//	    if r.Err != nil {
//	        log.Printf("reload failed: %v", r.Err)
//	        return
//	    }
//	    swap(r.Env)
//	})
//	w.Start()
//	defer w.Stop()
package envsmith
