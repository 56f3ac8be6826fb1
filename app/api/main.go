package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"
	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/database/mongoclient"
	"github.com/unit-xyz/goapi/base/database/redisclient"
	"github.com/unit-xyz/goapi/base/keylock"
	"github.com/unit-xyz/goapi/base/log"
	"github.com/unit-xyz/goapi/base/metrics"
	bValidator "github.com/unit-xyz/goapi/base/validator"
	"github.com/unit-xyz/goapi/domain"
	mmiddleware "github.com/unit-xyz/goapi/middleware"
	"github.com/unit-xyz/goapi/service/chain"
	"github.com/unit-xyz/goapi/service/chain/contract"
	"github.com/unit-xyz/goapi/service/notifier"
	"github.com/unit-xyz/goapi/service/payout"
	"github.com/unit-xyz/goapi/service/query"
	"github.com/unit-xyz/goapi/service/redis"
	account_repository "github.com/unit-xyz/goapi/stores/account/repository"
	account_usecase "github.com/unit-xyz/goapi/stores/account/usecase"
	auth_delivery "github.com/unit-xyz/goapi/stores/auth/delivery/http"
	auth_middleware "github.com/unit-xyz/goapi/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/unit-xyz/goapi/stores/auth/usecase"
	hc_delivery "github.com/unit-xyz/goapi/stores/healthcheck/delivery/http"
	hc_repo "github.com/unit-xyz/goapi/stores/healthcheck/repository"
	hc_usecase "github.com/unit-xyz/goapi/stores/healthcheck/usecase"
	ledger_repository "github.com/unit-xyz/goapi/stores/ledger/repository"
	ledger_usecase "github.com/unit-xyz/goapi/stores/ledger/usecase"
	listing_repository "github.com/unit-xyz/goapi/stores/listing/repository"
	listing_usecase "github.com/unit-xyz/goapi/stores/listing/usecase"
	marketplace_delivery "github.com/unit-xyz/goapi/stores/marketplace/delivery/http"
	marketplace_usecase "github.com/unit-xyz/goapi/stores/marketplace/usecase"
	offer_repository "github.com/unit-xyz/goapi/stores/offer/repository"
	offer_usecase "github.com/unit-xyz/goapi/stores/offer/usecase"
)

func init() {
	configPath := pflag.String("config", "infra/configs/config.yaml", "path to config file")
	pflag.Parse()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configPath)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init mongo client
	context.Info("init mongo")
	uri := viper.GetString("mongo.uri")
	authDBName := viper.GetString("mongo.authDBName")
	dbName := viper.GetString("mongo.dbName")
	enableSSL := viper.GetBool("mongo.enableSSL")
	checkIndex := viper.GetBool("mongo.checkIndex")
	mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
	q := query.New(mongoClient, checkIndex)

	// init redis service
	context.Info("init redis cache")
	redisCacheName := viper.GetString("redis_cache.name")
	redisCacheURI := viper.GetString("redis_cache.uri")
	redisCachePwd := viper.GetString("redis_cache.password")
	redisCachePoolMultiplier := viper.GetFloat64("redis_cache.poolMultiplier")
	redisCachePool := redisclient.MustConnectRedis(redisCacheURI, redisCachePwd, redisclient.RedisParam{
		PoolMultiplier: redisCachePoolMultiplier,
		Retry:          true,
	})
	redisCache := redis.New(redisCacheName, metrics.New(redisCacheName), &redis.Pools{
		Src: redisCachePool,
	})

	mmiddleware.SetupCache(redisCache)

	// init chain service
	chainId := viper.GetInt64("marketplace.chainId")
	networks := viper.Sub("networks")
	keys := networks.AllSettings()
	rpcs := make(map[int32]string)
	archiveRpcs := make(map[int32]string)
	for k := range keys {
		networkChainId := networks.GetInt32(fmt.Sprintf("%s.chainId", k))
		rpcs[networkChainId] = networks.GetString(fmt.Sprintf("%s.rpcUrl", k))
		archiveRpcs[networkChainId] = networks.GetString(fmt.Sprintf("%s.archiveRpcUrl", k))
	}
	chainService, err := chain.NewClient(context, &chain.ClientCfg{
		RpcUrls:        rpcs,
		ArchiveRpcUrls: archiveRpcs,
	})
	if err != nil {
		context.WithField("err", err).Warn("chainService started with error")
	}
	erc721Service := contract.NewErc721(chainService)
	erc20Service := contract.NewErc20(chainService)

	payoutService, err := payout.New(context, &payout.ServiceCfg{
		RpcUrl:        rpcs[int32(chainId)],
		ChainId:       chainId,
		PrivateKeyHex: viper.GetString("marketplace.treasuryKey"),
	})
	if err != nil {
		context.WithField("err", err).Panic("payout.New failed")
	}

	// construct repository, usecase and delivery
	hcRepo := hc_repo.New(mongoClient, redisCache)
	accountRepo := account_repository.New(q, redisCache)
	activityRepo := account_repository.NewActivityHistoryRepo(q)
	listingRepo := listing_repository.NewListingRepo()
	offerRepo := offer_repository.NewOfferRepo()
	ledgerRepo := ledger_repository.NewLedgerRepo()

	emitter := notifier.New(&notifier.NotifierCfg{
		ActivityHistoryRepo: activityRepo,
	})
	defer emitter.Close()

	itemLock := keylock.New()

	hc := hc_usecase.New(hcRepo)
	account := account_usecase.New(&account_usecase.AccountUseCaseCfg{
		Repo: accountRepo,
	})
	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), account, viper.GetString("auth.signatureMsg"))

	listing := listing_usecase.New(&listing_usecase.ListingUseCaseCfg{
		ChainId:     domain.ChainId(chainId),
		Marketplace: payoutService.TreasuryAddress(),
		ListingRepo: listingRepo,
		Erc721:      erc721Service,
		Emitter:     emitter,
		KeyLock:     itemLock,
	})
	offer := offer_usecase.New(&offer_usecase.OfferUseCaseCfg{
		ChainId:          domain.ChainId(chainId),
		Marketplace:      payoutService.TreasuryAddress(),
		ListingRepo:      listingRepo,
		OfferRepo:        offerRepo,
		Erc20:            erc20Service,
		Emitter:          emitter,
		KeyLock:          itemLock,
		MinOfferDuration: viper.GetDuration("marketplace.minOfferDuration"),
		OfferGraceWindow: viper.GetDuration("marketplace.offerGraceWindow"),
	})
	settlement := marketplace_usecase.New(&marketplace_usecase.MarketplaceUseCaseCfg{
		ListingRepo:    listingRepo,
		OfferRepo:      offerRepo,
		LedgerRepo:     ledgerRepo,
		Payout:         payoutService,
		Emitter:        emitter,
		KeyLock:        itemLock,
		FeeNumerator:   viper.GetInt64("marketplace.feeNumerator"),
		FeeDenominator: viper.GetInt64("marketplace.feeDenominator"),
	})
	feeAdmin := domain.Address(viper.GetString("marketplace.feeAdministrator"))
	ledger := ledger_usecase.New(&ledger_usecase.LedgerUseCaseCfg{
		LedgerRepo:       ledgerRepo,
		Payout:           payoutService,
		Emitter:          emitter,
		FeeAdministrator: feeAdmin,
	})

	authMiddleware := auth_middleware.New(auth, feeAdmin)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth, viper.GetString("auth.signatureMsg"))
	marketplace_delivery.New(e, listing, offer, settlement, ledger, activityRepo, authMiddleware)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
