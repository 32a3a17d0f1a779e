package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/questx-lab/prizeengine/config"
	"github.com/questx-lab/prizeengine/internal/common"
	"github.com/questx-lab/prizeengine/internal/domain"
	"github.com/questx-lab/prizeengine/internal/domain/signer"
	"github.com/questx-lab/prizeengine/internal/entity"
	"github.com/questx-lab/prizeengine/internal/repository"
	"github.com/questx-lab/prizeengine/pkg/kafka"
	"github.com/questx-lab/prizeengine/pkg/logger"
	"github.com/questx-lab/prizeengine/pkg/pubsub"
	"github.com/questx-lab/prizeengine/pkg/router"
	"github.com/questx-lab/prizeengine/pkg/xcache"
	"github.com/questx-lab/prizeengine/pkg/xcontext"
	"github.com/questx-lab/prizeengine/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	ctx context.Context
	app *cli.App

	configs *config.Configs
	logger  logger.Logger
	db      *gorm.DB

	redisClient xredis.Client
	publisher   pubsub.Publisher
	signer      signer.Signer
	idGenerator *snowflake.Node

	redemptionSwitch *common.RedemptionSwitch
	prizeCache       xcache.Cache[entity.Prize]

	tokenRepo         repository.TokenRepository
	reusableTokenRepo repository.ReusableTokenRepository
	batchRepo         repository.BatchRepository
	prizeRepo         repository.PrizeRepository
	rouletteRepo      repository.RouletteRepository
	settingRepo       repository.SystemSettingRepository

	tokenDomain     domain.TokenDomain
	batchDomain     domain.BatchDomain
	scheduleDomain  domain.ScheduleDomain
	rouletteDomain  domain.RouletteDomain
	reconcileDomain domain.ReconcileDomain

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	s.configs = cfg
	s.ctx = xcontext.WithConfigs(s.ctx, *cfg)
}

func (s *srv) loadLogger() {
	s.logger = logger.NewLogger(logger.ParseLevel(s.configs.LogLevel))
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	gormConfig := &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	if s.configs.Env == "local" && s.configs.Database.SqlitePath != "" {
		dialector = sqlite.Open(s.configs.Database.SqlitePath)
	} else {
		dialector = mysql.New(mysql.Config{
			DSN:                       s.configs.Database.ConnectionString(), // data source name
			DefaultStringSize:         256,                                   // default size for string fields
			DisableDatetimePrecision:  true,                                  // disable datetime precision, which not supported before MySQL 5.6
			DontSupportRenameIndex:    true,                                  // drop & create when rename index, rename index not supported before MySQL 5.7, MariaDB
			DontSupportRenameColumn:   true,                                  // `change` when rename column, rename column not supported before MySQL 8, MariaDB
			SkipInitializeWithVersion: false,                                 // auto configure based on currently MySQL version
		})
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		panic(err)
	}

	if s.configs.Env == "local" && s.configs.Database.SqlitePath != "" {
		sqlDB, err := db.DB()
		if err != nil {
			panic(err)
		}

		// sqlite only accepts one writer.
		sqlDB.SetMaxOpenConns(1)
	}

	return db
}

func (s *srv) loadDatabase() {
	s.db = s.newDatabase()
	s.ctx = xcontext.WithDB(s.ctx, s.db)
}

// loadRedisClient connects to redis only if an address is configured, the
// caches fall back to memory otherwise.
func (s *srv) loadRedisClient() {
	if s.configs.Redis.Addr == "" {
		return
	}

	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadCaches() {
	if s.redisClient == nil {
		s.redemptionSwitch = common.NewRedemptionSwitch(s.settingRepo,
			xcache.NewMemory[bool](s.configs.Cache.SwitchTTL))
		s.prizeCache = xcache.NewMemory[entity.Prize](s.configs.Cache.PrizeTTL)
		return
	}

	s.redemptionSwitch = common.NewRedemptionSwitch(s.settingRepo,
		xcache.NewRedis[bool](s.redisClient, common.CachePrefixSetting, s.configs.Cache.SwitchTTL))
	s.prizeCache = xcache.NewRedis[entity.Prize](s.redisClient, common.CachePrefixPrize, s.configs.Cache.PrizeTTL)
}

func (s *srv) loadPublisher() {
	if s.configs.Kafka.Addr == "" {
		s.publisher = pubsub.NopPublisher()
		return
	}

	publisher, err := kafka.NewPublisher(s.configs.Kafka.ClientID, []string{s.configs.Kafka.Addr})
	if err != nil {
		panic(err)
	}

	s.publisher = publisher
}

func (s *srv) loadSigner() {
	var err error
	s.signer, err = signer.New(s.configs.Signer.CurrentVersion, s.configs.Signer.Keys)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadIDGenerator() {
	var err error
	s.idGenerator, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.tokenRepo = repository.NewTokenRepository()
	s.reusableTokenRepo = repository.NewReusableTokenRepository()
	s.batchRepo = repository.NewBatchRepository()
	s.prizeRepo = repository.NewPrizeRepository()
	s.rouletteRepo = repository.NewRouletteRepository()
	s.settingRepo = repository.NewSystemSettingRepository()
}

func (s *srv) loadDomains() {
	s.tokenDomain = domain.NewTokenDomain(s.tokenRepo, s.reusableTokenRepo, s.batchRepo, s.prizeRepo,
		s.signer, s.redemptionSwitch, s.prizeCache, s.publisher)
	s.batchDomain = domain.NewBatchDomain(s.batchRepo, s.prizeRepo, s.tokenRepo, s.reusableTokenRepo,
		s.signer, s.prizeCache, s.publisher)
	s.scheduleDomain = domain.NewScheduleDomain(s.tokenRepo, s.reusableTokenRepo, s.batchRepo,
		s.redemptionSwitch)
	s.rouletteDomain = domain.NewRouletteDomain(s.rouletteRepo, s.batchRepo, s.tokenRepo, s.prizeRepo,
		s.publisher, s.idGenerator)
	s.reconcileDomain = domain.NewReconcileDomain(s.tokenRepo, s.reusableTokenRepo, s.prizeRepo,
		s.scheduleDomain)
}

// loadAll loads everything the api and cron commands share.
func (s *srv) loadAll() {
	s.loadDatabase()
	s.migrateDB()
	s.loadRedisClient()
	s.loadRepos()
	s.loadCaches()
	s.loadPublisher()
	s.loadSigner()
	s.loadIDGenerator()
	s.loadDomains()
}
