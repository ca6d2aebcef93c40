package schema

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type SchemaTestSuite struct {
	suite.Suite
}

func TestSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}

func (suite *SchemaTestSuite) TestToJSONSchema() {
	type TestConfig struct {
		ShortPeriod int    `yaml:"short_period" jsonschema:"title=Short Period,description=Window of the fast moving average,minimum=1,default=10"`
		LongPeriod  int    `yaml:"long_period" jsonschema:"title=Long Period,description=Window of the slow moving average,minimum=1,default=20"`
		Symbol      string `yaml:"symbol" jsonschema:"title=Symbol,description=Instrument to trade,default=AAPL"`
	}

	schema, err := ToJSONSchema(TestConfig{})
	suite.NoError(err)
	suite.NotEmpty(schema)
	suite.Contains(schema, "Short Period")
}
