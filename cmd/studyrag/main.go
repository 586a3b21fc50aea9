package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"studyrag/internal/chunker"
	"studyrag/internal/config"
	"studyrag/internal/domain"
	"studyrag/internal/embedding/hashing"
	"studyrag/internal/embedding/openai"
	"studyrag/internal/export"
	"studyrag/internal/format"
	"studyrag/internal/index"
	"studyrag/internal/index/flat"
	"studyrag/internal/index/qdrant"
	"studyrag/internal/llm"
	"studyrag/internal/service"
	"studyrag/internal/store"
	"studyrag/internal/transcript"
	"studyrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath    string
		action     string
		user       string
		docID      string
		formatKey  string
		customTmpl string
		exportDir  string
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/studyrag/config.yaml if not provided)")
	flag.StringVar(&action, "action", "", "What to do: upload | list | delete | formats | notes | chat")
	flag.StringVar(&user, "user", "", "Owner of the documents (defaults to $USER)")
	flag.StringVar(&docID, "doc", "", "Document id for notes/chat/delete")
	flag.StringVar(&formatKey, "format", "", "Notes format key (see -action=formats), or 'custom'")
	flag.StringVar(&customTmpl, "template", "", "Template text for -format=custom")
	flag.StringVar(&exportDir, "export", "", "Directory to write generated notes as Markdown (optional)")
	flag.Parse()

	if action == "" {
		usage()
		os.Exit(1)
	}
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		log.Fatal("no user: pass -user or set $USER")
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if action == "formats" {
		for _, f := range format.Catalog() {
			fmt.Printf("%-18s %s\n", f.Key, f.Label)
		}
		fmt.Printf("%-18s %s\n", format.CustomKey, "Your own template (pass -template)")
		return
	}

	svc, closeStore := assemble(cfg)
	defer closeStore()
	ctx := context.Background()

	switch action {
	case "upload":
		if flag.NArg() == 0 {
			log.Fatal("upload: pass one or more transcript files (.txt, .pdf, .srt)")
		}
		for _, path := range flag.Args() {
			text, contentType, err := transcript.ExtractFile(path)
			if err != nil {
				log.Fatalf("read %s: %v", path, err)
			}
			doc, err := svc.UploadDocument(ctx, user, filepath.Base(path), contentType, text)
			if err != nil {
				log.Fatalf("upload %s: %v", path, err)
			}
			fmt.Printf("%s  %s\n", doc.ID, doc.Title)
		}
	case "list":
		docs, err := svc.Documents(ctx, user)
		if err != nil {
			log.Fatalf("list documents: %v", err)
		}
		for _, d := range docs {
			fmt.Printf("%s  %-30s %s\n", d.ID, d.Title, d.CreatedAt.Format(time.DateTime))
		}
	case "delete":
		if docID == "" {
			log.Fatal("delete: pass -doc")
		}
		if err := svc.DeleteDocument(ctx, user, docID); err != nil {
			log.Fatalf("delete document: %v", err)
		}
	case "notes":
		if docID == "" || formatKey == "" {
			log.Fatal("notes: pass -doc and -format")
		}
		sess := openSession(ctx, svc, user, docID, formatKey, customTmpl)
		notes, err := svc.GenerateNotes(ctx, sess.ID)
		if err != nil {
			log.Fatalf("generate notes: %v", err)
		}
		fmt.Println(notes)
		exportNotes(ctx, svc, cfg, exportDir, user, docID, notes)
	case "chat":
		if docID == "" {
			log.Fatal("chat: pass -doc")
		}
		sess := openSession(ctx, svc, user, docID, formatKey, customTmpl)
		var notes string
		if formatKey != "" {
			if notes, err = svc.GenerateNotes(ctx, sess.ID); err != nil {
				log.Fatalf("generate notes: %v", err)
			}
		}
		doc, err := svc.Documents(ctx, user)
		if err != nil {
			log.Fatalf("list documents: %v", err)
		}
		title := docID
		for _, d := range doc {
			if d.ID == docID {
				title = d.Title
			}
		}
		m := tui.New(svc, sess.ID, title, notes)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal(err)
		}
	default:
		usage()
		os.Exit(1)
	}
}

// openSession creates a session on the document and records the format
// choice when one was given.
func openSession(ctx context.Context, svc *service.Service, user, docID, formatKey, customTmpl string) domain.Session {
	sess, err := svc.CreateSession(ctx, user, docID)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	if formatKey != "" {
		choice := domain.FormatChoice{Key: formatKey, Custom: customTmpl}
		if err := svc.SelectFormat(ctx, sess.ID, choice); err != nil {
			log.Fatalf("select format: %v", err)
		}
	}
	return sess
}

func exportNotes(ctx context.Context, svc *service.Service, cfg *config.AppConfig, exportDir, user, docID, notes string) {
	if exportDir == "" {
		exportDir = cfg.Store.ExportDir
	}
	if exportDir == "" {
		return
	}
	title := docID
	docs, err := svc.Documents(ctx, user)
	if err == nil {
		for _, d := range docs {
			if d.ID == docID {
				title = d.Title
			}
		}
	}
	path, err := export.Markdown(exportDir, title, notes)
	if err != nil {
		log.Fatalf("export notes: %v", err)
	}
	fmt.Fprintf(os.Stderr, "notes written to %s\n", path)
}

// assemble builds the service from config. The returned func closes the
// metadata store.
func assemble(cfg *config.AppConfig) (*service.Service, func()) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hashing", "":
		emb = hashing.NewEmbedder(cfg.Embedder.Dimension)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var backend index.Backend
	switch cfg.Index.Type {
	case "flat", "":
		b, err := flat.NewBackend(cfg.Index.Dir)
		if err != nil {
			log.Fatalf("open index dir: %v", err)
		}
		backend = b
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		backend = qdrant.NewBackend(qdrant.Config{
			URL:       cfg.Index.Qdrant.URL,
			APIKey:    cfg.Index.Qdrant.APIKey,
			Dimension: emb.Dimension(),
			Timeout:   time.Duration(cfg.Index.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown index backend: %s", cfg.Index.Type)
	}

	ch, err := chunker.NewTokenChunker(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("bad chunker config: %v", err)
	}

	gen, err := llm.NewClient(llm.Config{
		BaseURL:   cfg.Generator.BaseURL,
		APIKeyEnv: cfg.Generator.APIKeyEnv,
		Model:     cfg.Generator.Model,
		Timeout:   time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	st, err := storeOpen(cfg.Store.Path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}

	svc := service.New(st, index.NewManager(backend, emb), ch, gen, service.Config{
		NotesTopK:        cfg.Retrieval.NotesTopK,
		ChatTopK:         cfg.Retrieval.ChatTopK,
		Threshold:        *cfg.Retrieval.SimilarityThreshold,
		NotesTemperature: *cfg.Generator.NotesTemperature,
		ChatTemperature:  *cfg.Generator.ChatTemperature,
	})
	return svc, func() { st.Close() }
}

func storeOpen(path string) (*store.SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return store.Open(path)
}

func usage() {
	fmt.Println(`Usage: studyrag -action=<action> [flags] [files...]

Actions:
  upload   index transcript files: studyrag -action=upload lecture1.txt slides.pdf
  list     list uploaded documents
  delete   remove a document and its index: -doc=<id>
  formats  list available notes formats
  notes    generate study notes: -doc=<id> -format=<key> [-template=...] [-export=dir]
  chat     interactive Q&A over a document: -doc=<id> [-format=<key>]`)
}
