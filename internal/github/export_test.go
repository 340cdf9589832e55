package github

// GraphQLURL exposes the derived GraphQL endpoint to tests
func GraphQLURL(c *RESTClient) string {
	return c.graphqlURL
}
