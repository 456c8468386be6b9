package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Paths    PathsConfig   `mapstructure:"paths"`
	Corpus   CorpusConfig  `mapstructure:"corpus"`
	Trainer  TrainerConfig `mapstructure:"trainer"`
	Eval     EvalConfig    `mapstructure:"eval"`
	Server   ServerConfig  `mapstructure:"server"`
}

type PathsConfig struct {
	SourceDir  string `mapstructure:"source_dir"`
	CorpusPath string `mapstructure:"corpus_path"`
	ModelPath  string `mapstructure:"model_path"`
}

type CorpusConfig struct {
	TextColumn string `mapstructure:"text_column"`
	Workers    int    `mapstructure:"workers"`
}

type TrainerConfig struct {
	CLIPath           string  `mapstructure:"cli_path"`
	ModelDir          string  `mapstructure:"model_dir"`
	ModelPrefix       string  `mapstructure:"model_prefix"`
	VocabSize         int     `mapstructure:"vocab_size"`
	ModelType         string  `mapstructure:"model_type"`
	CharacterCoverage float64 `mapstructure:"character_coverage"`
	NormalizationRule string  `mapstructure:"normalization_rule"`
	SampleSize        int     `mapstructure:"sample_size"`
	MaxSentenceLength int     `mapstructure:"max_sentence_length"`
	ByteFallback      bool    `mapstructure:"byte_fallback"`
}

type EvalConfig struct {
	Backend    string `mapstructure:"backend"`
	Encoding   string `mapstructure:"encoding"`
	SourceType string `mapstructure:"source_type"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxBodyBytes    int    `mapstructure:"max_body_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	Workers         int    `mapstructure:"workers"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			SourceDir:  "data",
			CorpusPath: "data/corpus.txt",
			ModelPath:  "tokenizer_models/tokenizer.model",
		},
		Corpus: CorpusConfig{
			TextColumn: "",
			Workers:    1,
		},
		Trainer: TrainerConfig{
			CLIPath:           "",
			ModelDir:          "tokenizer_models",
			ModelPrefix:       "tokenizer",
			VocabSize:         16000,
			ModelType:         "unigram",
			CharacterCoverage: 0.9995,
			NormalizationRule: "nmt_nfkc",
			SampleSize:        10000000,
			MaxSentenceLength: 4096,
			ByteFallback:      false,
		},
		Eval: EvalConfig{
			Backend:    BackendSentencePiece,
			Encoding:   "",
			SourceType: "line-text",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			MaxBodyBytes:    1 << 20,
			RequestTimeout:  30,
			ShutdownTimeout: 10,
			Workers:         2,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("paths-source-dir", defaults.Paths.SourceDir, "Directory scanned for corpus source files")
	fs.String("paths-corpus-path", defaults.Paths.CorpusPath, "Path of the aggregated corpus file")
	fs.String("paths-model-path", defaults.Paths.ModelPath, "Path to the trained tokenizer model")
	fs.String("corpus-text-column", defaults.Corpus.TextColumn, "Text column for tabular sources (empty selects the first column)")
	fs.Int("corpus-workers", defaults.Corpus.Workers, "Concurrent source loads during corpus aggregation")
	fs.String("trainer-cli-path", defaults.Trainer.CLIPath, "Path to the spm_train executable")
	fs.String("trainer-model-dir", defaults.Trainer.ModelDir, "Output directory for trained models")
	fs.String("trainer-model-prefix", defaults.Trainer.ModelPrefix, "Filename prefix of the trained model")
	fs.Int("trainer-vocab-size", defaults.Trainer.VocabSize, "Vocabulary size")
	fs.String("trainer-model-type", defaults.Trainer.ModelType, "Model type (unigram|bpe|word|char)")
	fs.Float64("trainer-character-coverage", defaults.Trainer.CharacterCoverage, "Character coverage")
	fs.String("trainer-normalization-rule", defaults.Trainer.NormalizationRule, "SentencePiece normalization rule name")
	fs.Int("trainer-sample-size", defaults.Trainer.SampleSize, "Number of sentences sampled for training")
	fs.Int("trainer-max-sentence-length", defaults.Trainer.MaxSentenceLength, "Maximum sentence length in bytes")
	fs.Bool("trainer-byte-fallback", defaults.Trainer.ByteFallback, "Decompose unknown characters into bytes")
	fs.String("eval-backend", defaults.Eval.Backend, "Tokenizer backend (sentencepiece|tiktoken)")
	fs.String("eval-encoding", defaults.Eval.Encoding, "tiktoken encoding name (tiktoken backend only)")
	fs.String("eval-source-type", defaults.Eval.SourceType, "Evaluation corpus source type (line-text|tabular)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Maximum evaluate request body size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request evaluation deadline in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown drain period in seconds")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent evaluation requests")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("TOKEVAL")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("trainer.cli_path", "TOKEVAL_SPM_TRAIN", "SPM_TRAIN_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind trainer env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("tokeval")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("paths.source_dir", c.Paths.SourceDir)
	v.SetDefault("paths.corpus_path", c.Paths.CorpusPath)
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("corpus.text_column", c.Corpus.TextColumn)
	v.SetDefault("corpus.workers", c.Corpus.Workers)
	v.SetDefault("trainer.cli_path", c.Trainer.CLIPath)
	v.SetDefault("trainer.model_dir", c.Trainer.ModelDir)
	v.SetDefault("trainer.model_prefix", c.Trainer.ModelPrefix)
	v.SetDefault("trainer.vocab_size", c.Trainer.VocabSize)
	v.SetDefault("trainer.model_type", c.Trainer.ModelType)
	v.SetDefault("trainer.character_coverage", c.Trainer.CharacterCoverage)
	v.SetDefault("trainer.normalization_rule", c.Trainer.NormalizationRule)
	v.SetDefault("trainer.sample_size", c.Trainer.SampleSize)
	v.SetDefault("trainer.max_sentence_length", c.Trainer.MaxSentenceLength)
	v.SetDefault("trainer.byte_fallback", c.Trainer.ByteFallback)
	v.SetDefault("eval.backend", c.Eval.Backend)
	v.SetDefault("eval.encoding", c.Eval.Encoding)
	v.SetDefault("eval.source_type", c.Eval.SourceType)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("log_level", "log-level")
	v.RegisterAlias("paths.source_dir", "paths-source-dir")
	v.RegisterAlias("paths.corpus_path", "paths-corpus-path")
	v.RegisterAlias("paths.model_path", "paths-model-path")
	v.RegisterAlias("corpus.text_column", "corpus-text-column")
	v.RegisterAlias("corpus.workers", "corpus-workers")
	v.RegisterAlias("trainer.cli_path", "trainer-cli-path")
	v.RegisterAlias("trainer.model_dir", "trainer-model-dir")
	v.RegisterAlias("trainer.model_prefix", "trainer-model-prefix")
	v.RegisterAlias("trainer.vocab_size", "trainer-vocab-size")
	v.RegisterAlias("trainer.model_type", "trainer-model-type")
	v.RegisterAlias("trainer.character_coverage", "trainer-character-coverage")
	v.RegisterAlias("trainer.normalization_rule", "trainer-normalization-rule")
	v.RegisterAlias("trainer.sample_size", "trainer-sample-size")
	v.RegisterAlias("trainer.max_sentence_length", "trainer-max-sentence-length")
	v.RegisterAlias("trainer.byte_fallback", "trainer-byte-fallback")
	v.RegisterAlias("eval.backend", "eval-backend")
	v.RegisterAlias("eval.encoding", "eval-encoding")
	v.RegisterAlias("eval.source_type", "eval-source-type")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.max_body_bytes", "server-max-body-bytes")
	v.RegisterAlias("server.request_timeout", "server-request-timeout")
	v.RegisterAlias("server.shutdown_timeout", "server-shutdown-timeout")
	v.RegisterAlias("server.workers", "server-workers")
}
