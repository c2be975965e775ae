package tasks

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/sitepipe/internal/changed"
	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/fonts"
	"git.home.luguber.info/inful/sitepipe/internal/glob"
	"git.home.luguber.info/inful/sitepipe/internal/images"
	"git.home.luguber.info/inful/sitepipe/internal/include"
	"git.home.luguber.info/inful/sitepipe/internal/minify"
	"git.home.luguber.info/inful/sitepipe/internal/rewrite"
	"git.home.luguber.info/inful/sitepipe/internal/scripts"
	"git.home.luguber.info/inful/sitepipe/internal/sprite"
	"git.home.luguber.info/inful/sitepipe/internal/styles"
	"git.home.luguber.info/inful/sitepipe/internal/tools"
	"git.home.luguber.info/inful/sitepipe/internal/typograf"
	"git.home.luguber.info/inful/sitepipe/internal/webphtml"
)

// Task names, in table order.
const (
	TaskHTML      = "html"
	TaskStyles    = "styles"
	TaskImages    = "images"
	TaskSVGStack  = "svg-stack"
	TaskSVGSymbol = "svg-symbol"
	TaskFiles     = "files"
	TaskScripts   = "scripts"
	TaskFonts     = "fonts"
)

// Names lists every task name in table order.
var Names = []string{TaskHTML, TaskStyles, TaskImages, TaskSVGStack, TaskSVGSymbol, TaskFiles, TaskScripts, TaskFonts}

// Sprite output locations relative to the sprite directory.
const (
	StackSprite  = "stack/svg/sprite.stack.svg"
	StackExample = "stack/sprite.stack.html"
	SymbolSprite = "sprite.symbol.svg"
)

// Deps are the collaborators the table wires into stages. Zero fields get
// working defaults.
type Deps struct {
	Tools    tools.Runner
	Compiler styles.Compiler
}

type builder struct {
	cfg  *config.Config
	mode config.Mode
	deps Deps
	out  string
	min  *minify.Minifier
}

// Table builds every task definition for mode.
func Table(cfg *config.Config, mode config.Mode, deps Deps) ([]TaskDef, error) {
	b, err := newBuilder(cfg, mode, deps)
	if err != nil {
		return nil, err
	}
	htmlTask, err := b.html()
	if err != nil {
		return nil, err
	}
	stylesTask, err := b.styles()
	if err != nil {
		return nil, err
	}
	scriptsTask, err := b.scripts()
	if err != nil {
		return nil, err
	}
	fontsTask := b.fontCopy()
	if mode == config.ModeProd {
		fontsTask = b.fontPipeline()
	}
	return []TaskDef{
		htmlTask,
		stylesTask,
		b.images(),
		b.svgStack(),
		b.svgSymbol(),
		b.files(),
		scriptsTask,
		fontsTask,
	}, nil
}

// FontPipeline builds the full font task (materialize, convert, stylesheet)
// for mode, whatever the mode's table uses.
func FontPipeline(cfg *config.Config, mode config.Mode, deps Deps) (TaskDef, error) {
	b, err := newBuilder(cfg, mode, deps)
	if err != nil {
		return TaskDef{}, err
	}
	return b.fontPipeline(), nil
}

// Find returns the task called name.
func Find(defs []TaskDef, name string) (TaskDef, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return TaskDef{}, false
}

func newBuilder(cfg *config.Config, mode config.Mode, deps Deps) (*builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tasks: nil config")
	}
	if deps.Tools == nil {
		deps.Tools = tools.BinaryRunner{}
	}
	if deps.Compiler == nil {
		deps.Compiler = styles.BinaryCompiler{
			Runner:    deps.Tools,
			Binary:    cfg.Tools.Sass,
			LoadPaths: []string{cfg.SourceDir(cfg.Paths.Styles)},
			SourceMap: mode == config.ModeDev,
		}
	}
	return &builder{cfg: cfg, mode: mode, deps: deps, out: cfg.OutputRoot(mode), min: minify.New()}, nil
}

func (b *builder) prod() bool { return b.mode == config.ModeProd }

// watchGlob joins a source subdirectory and a pattern into a watch glob.
func watchGlob(sub, pattern string) string {
	return path.Join(glob.Escape(sub), pattern)
}

func (b *builder) html() (TaskDef, error) {
	c := b.cfg
	ty, err := typograf.New(c.HTML.Locales, safeTags(c.HTML.SafeTags))
	if err != nil {
		return TaskDef{}, err
	}
	exp := &include.Expander{Prefix: c.HTML.IncludePrefix}

	stages := []Stage{
		StageFunc("include", func(_ context.Context, a *Asset) error {
			out, err := exp.Expand(a.Path, a.Content)
			if err != nil {
				return err
			}
			a.Content = out
			return nil
		}),
	}
	if b.prod() {
		stages = append(stages, TextStage("picture-webp", rewrite.PictureWebP))
	}
	stages = append(stages,
		TextStage("rewrite", rewrite.HTML),
		ContentStage("typograf", func(in []byte) ([]byte, error) {
			out, err := ty.Execute(string(in))
			return []byte(out), err
		}),
	)
	if b.prod() {
		wrapper := webphtml.New(c.HTML.WebPExtensions, c.HTML.Retina)
		stages = append(stages,
			ContentStage("webp-html", func(in []byte) ([]byte, error) {
				out, err := wrapper.Wrap(string(in))
				return []byte(out), err
			}),
			ContentStage("minify", b.min.HTML),
		)
	}

	return TaskDef{
		Name:  TaskHTML,
		Mode:  b.mode,
		Watch: []string{watchGlob(c.Paths.HTML, "**/*.html"), watchGlob(c.Paths.HTML, "**/*.json")},
		Phases: []Phase{{
			Source: glob.MustNew(c.SourceDir(c.Paths.HTML), []string{"**/*.html"}, []string{glob.Escape(c.Paths.Blocks) + "/**"}),
			OutDir: b.out,
			Post:   changed.NewContent(0),
			Stages: stages,
		}},
	}, nil
}

func safeTags(in []config.SafeTag) []typograf.SafeTag {
	out := make([]typograf.SafeTag, 0, len(in))
	for _, t := range in {
		out = append(out, typograf.SafeTag{Open: t.Open, Close: t.Close})
	}
	return out
}

func (b *builder) styles() (TaskDef, error) {
	c := b.cfg
	dir := c.SourceDir(c.Paths.Styles)
	compiler := b.deps.Compiler

	stages := []Stage{
		StageFunc("sass-glob", func(_ context.Context, a *Asset) error {
			out, err := styles.ExpandGlobs(a.Path, a.Content)
			if err != nil {
				return err
			}
			a.Content = out
			return nil
		}),
		StageFunc("compile", func(ctx context.Context, a *Asset) error {
			out, err := compiler.Compile(ctx, a.Path, a.Content)
			if err != nil {
				return err
			}
			a.Content = out
			return nil
		}),
	}
	if b.prod() {
		prefixer, err := styles.NewPrefixer(c.Styles.Targets)
		if err != nil {
			return TaskDef{}, err
		}
		stages = append(stages,
			StageFunc("prefix", func(_ context.Context, a *Asset) error {
				out, err := prefixer.Prefix(a.Rel, a.Content)
				if err != nil {
					return err
				}
				a.Content = out
				return nil
			}),
			ContentStage("group-media", styles.GroupMedia),
		)
	}
	stages = append(stages, TextStage("rewrite", rewrite.CSS))
	if b.prod() {
		stages = append(stages, ContentStage("minify", b.min.CSS))
	}

	return TaskDef{
		Name:  TaskStyles,
		Mode:  b.mode,
		Watch: []string{watchGlob(c.Paths.Styles, "**/*.scss")},
		Phases: []Phase{{
			Source:  glob.MustNew(dir, []string{"*.scss"}, []string{"_*"}),
			OutDir:  filepath.Join(b.out, "css"),
			OutName: ReplaceExt(".css"),
			Pre:     changed.NewNewer(glob.MustNew(dir, []string{"**/*.scss", "**/*.sass", "**/*.css"}, nil)),
			Stages:  stages,
		}},
	}, nil
}

func (b *builder) images() TaskDef {
	c := b.cfg
	dir := c.SourceDir(c.Paths.Images)
	icons := glob.Escape(c.Paths.SVGIcons) + "/**"
	out := filepath.Join(b.out, "img")
	def := TaskDef{
		Name:  TaskImages,
		Mode:  b.mode,
		Watch: []string{watchGlob(c.Paths.Images, "**/*")},
	}
	if !b.prod() {
		def.Phases = []Phase{{
			Source: glob.MustNew(dir, []string{"**/*"}, []string{icons}),
			OutDir: out,
			Pre:    changed.NewNewer(),
		}}
		return def
	}

	raster := "**/*.{png,jpg,jpeg}"
	enc := images.WebPEncoder{Runner: b.deps.Tools, Binary: c.Tools.CWebP, Quality: c.Images.WebPQuality}
	opt := images.NewOptimizer()
	def.Phases = []Phase{
		{
			Name:    "webp",
			Source:  glob.MustNew(dir, []string{raster}, []string{icons}),
			OutDir:  out,
			OutName: ReplaceExt(".webp"),
			Pre:     changed.NewNewer(),
			Stages: []Stage{StageFunc("cwebp", func(ctx context.Context, a *Asset) error {
				data, err := enc.Encode(ctx, a.Rel, a.Content)
				if err != nil {
					return err
				}
				a.Content = data
				return nil
			})},
		},
		{
			Name:   "optimize",
			Source: glob.MustNew(dir, []string{"**/*"}, []string{raster, icons}),
			OutDir: out,
			Pre:    changed.NewNewer(),
			Stages: []Stage{StageFunc("optimize", func(_ context.Context, a *Asset) error {
				data, err := opt.Optimize(a.Rel, a.Content)
				if err != nil {
					return err
				}
				a.Content = data
				return nil
			})},
		},
	}
	return def
}

func (b *builder) spriteOptions() sprite.Options {
	if b.prod() {
		return sprite.Options{}
	}
	return sprite.Options{Indent: 4}
}

func (b *builder) iconPhase(pack Packer) Phase {
	c := b.cfg
	return Phase{
		Source: glob.MustNew(filepath.Join(c.SourceDir(c.Paths.Images), c.Paths.SVGIcons), []string{"**/*.svg"}, nil),
		OutDir: filepath.Join(b.out, "img", "svgsprite"),
		Post:   changed.NewContent(0),
		Pack:   pack,
	}
}

func (b *builder) iconWatch() []string {
	return []string{watchGlob(path.Join(b.cfg.Paths.Images, b.cfg.Paths.SVGIcons), "*")}
}

func toIcons(assets []*Asset) []sprite.Icon {
	icons := make([]sprite.Icon, 0, len(assets))
	for _, a := range assets {
		icons = append(icons, sprite.Icon{ID: sprite.IconID(a.Rel), Data: a.Content})
	}
	return icons
}

func (b *builder) svgStack() TaskDef {
	opts := b.spriteOptions()
	pack := PackFunc("stack", func(_ context.Context, assets []*Asset) ([]*Asset, error) {
		icons := toIcons(assets)
		data, err := sprite.Stack(icons, opts)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(icons))
		for _, i := range icons {
			ids = append(ids, i.ID)
		}
		return []*Asset{
			{Out: StackSprite, Content: data},
			{Out: StackExample, Content: sprite.StackExample(ids, "svg/sprite.stack.svg")},
		}, nil
	})
	return TaskDef{Name: TaskSVGStack, Mode: b.mode, Watch: b.iconWatch(), Phases: []Phase{b.iconPhase(pack)}}
}

func (b *builder) svgSymbol() TaskDef {
	opts := b.spriteOptions()
	pack := PackFunc("symbol", func(_ context.Context, assets []*Asset) ([]*Asset, error) {
		data, err := sprite.Symbol(toIcons(assets), opts)
		if err != nil {
			return nil, err
		}
		return []*Asset{{Out: SymbolSprite, Content: data}}, nil
	})
	return TaskDef{Name: TaskSVGSymbol, Mode: b.mode, Watch: b.iconWatch(), Phases: []Phase{b.iconPhase(pack)}}
}

func (b *builder) files() TaskDef {
	c := b.cfg
	return TaskDef{
		Name:  TaskFiles,
		Mode:  b.mode,
		Watch: []string{watchGlob(c.Paths.Files, "**/*")},
		Phases: []Phase{{
			Source: glob.MustNew(c.SourceDir(c.Paths.Files), []string{"**/*"}, nil),
			OutDir: filepath.Join(b.out, "files"),
			Pre:    changed.NewNewer(),
		}},
	}
}

func (b *builder) scripts() (TaskDef, error) {
	c := b.cfg
	dir := c.SourceDir(c.Paths.Scripts)
	bundler := scripts.Dev(c.Scripts.Sourcemap)
	if b.prod() {
		var err error
		if bundler, err = scripts.Prod(c.Scripts.ProdTarget); err != nil {
			return TaskDef{}, err
		}
	}
	return TaskDef{
		Name:  TaskScripts,
		Mode:  b.mode,
		Watch: []string{watchGlob(c.Paths.Scripts, "**/*.js")},
		Phases: []Phase{{
			Source:    glob.MustNew(dir, []string{"*.js"}, nil),
			OutDir:    filepath.Join(b.out, "js"),
			OutName:   scripts.BundleName,
			Pre:       changed.NewNewer(glob.MustNew(dir, []string{"**/*.js"}, nil)),
			NamesOnly: true,
			Stages: []Stage{StageFunc("bundle", func(_ context.Context, a *Asset) error {
				data, err := bundler.Bundle(a.Path)
				if err != nil {
					return err
				}
				a.Content = data
				return nil
			})},
		}},
	}, nil
}

// fontCopy publishes already converted web fonts.
func (b *builder) fontCopy() TaskDef {
	c := b.cfg
	return TaskDef{
		Name: TaskFonts,
		Mode: b.mode,
		Phases: []Phase{{
			Source: glob.MustNew(c.SourceDir(c.Paths.Fonts), []string{"*.woff", "*.woff2"}, nil),
			OutDir: filepath.Join(b.out, "fonts"),
			Pre:    changed.NewNewer(),
		}},
	}
}

func (b *builder) fontPipeline() TaskDef {
	c := b.cfg
	src := c.SourceDir(c.Paths.Fonts)
	out := filepath.Join(b.out, "fonts")
	sheet := c.FontStylesheetPath()
	otf := fonts.Converter{Runner: b.deps.Tools, Binary: c.Tools.OTF2TTF}
	woff2 := fonts.Converter{Runner: b.deps.Tools, Binary: c.Tools.WOFF2}
	ttf := glob.MustNew(src, []string{"*.ttf"}, nil)

	return TaskDef{
		Name: TaskFonts,
		Mode: b.mode,
		Phases: []Phase{
			{
				Name:    "materialize",
				Source:  glob.MustNew(src, []string{"*.otf"}, nil),
				OutDir:  src,
				OutName: ReplaceExt(".ttf"),
				Pre:     changed.NewNewer(),
				Stages: []Stage{StageFunc("otf2ttf", func(ctx context.Context, a *Asset) error {
					data, err := otf.OTFToTTF(ctx, a.Rel, a.Content)
					if err != nil {
						return err
					}
					a.Content = data
					return nil
				})},
			},
			{
				Name:    "woff",
				Source:  ttf,
				OutDir:  out,
				OutName: ReplaceExt(".woff"),
				Pre:     changed.NewNewer(),
				Stages:  []Stage{ContentStage("woff", fonts.EncodeWOFF)},
			},
			{
				Name:    "woff2",
				Source:  ttf,
				OutDir:  out,
				OutName: ReplaceExt(".woff2"),
				Pre:     changed.NewNewer(),
				Stages: []Stage{StageFunc("woff2", func(ctx context.Context, a *Asset) error {
					data, err := woff2.TTFToWOFF2(ctx, a.Rel, a.Content)
					if err != nil {
						return err
					}
					a.Content = data
					return nil
				})},
			},
			{
				Name:      "stylesheet",
				Source:    glob.MustNew(out, []string{"*"}, nil),
				OutDir:    filepath.Dir(sheet),
				NamesOnly: true,
				PackEmpty: true,
				Pack: PackFunc("stylesheet", func(_ context.Context, assets []*Asset) ([]*Asset, error) {
					names := make([]string, 0, len(assets))
					for _, a := range assets {
						names = append(names, a.Rel)
					}
					return []*Asset{{Out: filepath.Base(sheet), Content: fonts.Stylesheet(names)}}, nil
				}),
			},
		},
	}
}
