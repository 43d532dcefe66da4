package storefront

import "github.com/commercekit/storefront-graphql-client/pkg/client"

// GraphQL operations issued by the service. Operation names double as
// metric labels and cache key components, so they stay stable.
var (
	opGetProduct = client.Operation{
		Name: "GetProduct",
		Document: `query GetProduct($slug: String!) {
  product(slug: $slug) {
    id slug name description brand inStock
    price { amount currency }
    images { url alt }
  }
}`,
	}

	opGetCategory = client.Operation{
		Name: "GetCategory",
		Document: `query GetCategory($id: ID!) {
  category(id: $id) {
    id slug name
    products {
      id slug name
      price { amount currency }
      image { url alt }
    }
  }
}`,
	}

	opGetCollection = client.Operation{
		Name: "GetCollection",
		Document: `query GetCollection($id: ID!) {
  collection(id: $id) {
    id slug title
    products {
      id slug name
      price { amount currency }
      image { url alt }
    }
  }
}`,
	}

	opSearchProducts = client.Operation{
		Name: "SearchProducts",
		Document: `query SearchProducts($query: String!, $page: Int!, $pageSize: Int!, $filters: FilterInput) {
  search(query: $query, page: $page, pageSize: $pageSize, filters: $filters) {
    total page
    items {
      id slug name
      price { amount currency }
      image { url alt }
    }
  }
}`,
	}

	opGetNavigation = client.Operation{
		Name: "GetNavigation",
		Document: `query GetNavigation {
  navigation {
    title path
    children {
      title path
      children { title path }
    }
  }
}`,
	}
)
