package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/querylab/internal/services"
)

type ReportCacheTestSuite struct {
	suite.Suite
	server *miniredis.Miniredis
	client *redis.Client
	cache  *RedisReportCache
	ctx    context.Context
}

func (suite *ReportCacheTestSuite) SetupTest() {
	suite.server = miniredis.RunT(suite.T())
	suite.client = redis.NewClient(&redis.Options{Addr: suite.server.Addr()})
	suite.cache = NewRedisReportCache(suite.client, time.Minute)
	suite.ctx = context.Background()
}

func (suite *ReportCacheTestSuite) TearDownTest() {
	suite.client.Close()
}

func (suite *ReportCacheTestSuite) TestMissThenHit() {
	_, ok, err := suite.cache.GetProductReport(suite.ctx)
	require.NoError(suite.T(), err)
	suite.False(ok)

	rows := []services.ProductReportRow{
		{ProductID: 1, ProductName: "Lamp", CategoryName: "Home", TotalSold: 3, TotalRevenue: decimal.RequireFromString("59.97"), OrderCount: 2},
		{ProductID: 2, ProductName: "Mug", CategoryName: "Home", TotalRevenue: decimal.Zero},
	}
	require.NoError(suite.T(), suite.cache.SetProductReport(suite.ctx, rows))

	got, ok, err := suite.cache.GetProductReport(suite.ctx)
	require.NoError(suite.T(), err)
	suite.True(ok)
	require.Len(suite.T(), got, 2)
	suite.True(got[0].TotalRevenue.Equal(rows[0].TotalRevenue))
	suite.Equal("Lamp", got[0].ProductName)
	suite.Equal(int64(2), got[0].OrderCount)
}

func (suite *ReportCacheTestSuite) TestTTLAndInvalidate() {
	require.NoError(suite.T(), suite.cache.SetProductReport(suite.ctx, []services.ProductReportRow{{ProductID: 1}}))
	suite.Equal(time.Minute, suite.server.TTL(productReportKey))

	require.NoError(suite.T(), suite.cache.InvalidateProductReport(suite.ctx))
	suite.False(suite.server.Exists(productReportKey))

	require.NoError(suite.T(), suite.cache.SetProductReport(suite.ctx, []services.ProductReportRow{{ProductID: 1}}))
	suite.server.FastForward(2 * time.Minute)
	_, ok, err := suite.cache.GetProductReport(suite.ctx)
	require.NoError(suite.T(), err)
	suite.False(ok)
}

func (suite *ReportCacheTestSuite) TestCorruptValueIsAMiss() {
	require.NoError(suite.T(), suite.server.Set(productReportKey, "{not json"))

	_, ok, err := suite.cache.GetProductReport(suite.ctx)
	require.NoError(suite.T(), err)
	suite.False(ok)
	suite.False(suite.server.Exists(productReportKey))
}

func (suite *ReportCacheTestSuite) TestServerDownSurfacesError() {
	suite.server.Close()

	_, _, err := suite.cache.GetProductReport(suite.ctx)
	suite.Error(err)
}

func TestReportCacheSuite(t *testing.T) {
	suite.Run(t, new(ReportCacheTestSuite))
}
