package storefront

const imageFields = `url altText width height`

const moneyFields = `amount currencyCode`

const productFragment = `
fragment product on Product {
  id
  handle
  availableForSale
  title
  description
  tags
  priceRange {
    maxVariantPrice { ` + moneyFields + ` }
    minVariantPrice { ` + moneyFields + ` }
  }
  compareAtPriceRange {
    maxVariantPrice { ` + moneyFields + ` }
    minVariantPrice { ` + moneyFields + ` }
  }
  featuredImage { ` + imageFields + ` }
  images(first: 20) {
    edges { node { ` + imageFields + ` } }
  }
  variants(first: 250) {
    edges {
      node {
        id
        title
        availableForSale
        selectedOptions { name value }
        price { ` + moneyFields + ` }
      }
    }
  }
}`

const cartFragment = `
fragment cart on Cart {
  id
  checkoutUrl
  totalQuantity
  cost {
    subtotalAmount { ` + moneyFields + ` }
    totalAmount { ` + moneyFields + ` }
    totalTaxAmount { ` + moneyFields + ` }
  }
  lines(first: 100) {
    edges {
      node {
        id
        quantity
        cost {
          totalAmount { ` + moneyFields + ` }
        }
        merchandise {
          ... on ProductVariant {
            id
            title
            selectedOptions { name value }
            product {
              id
              handle
              title
              featuredImage { ` + imageFields + ` }
            }
          }
        }
      }
    }
  }
}`

const userErrorFields = `userErrors { field message code }`

const getProductQuery = `
query getProduct($handle: String!) {
  product(handle: $handle) { ...product }
}` + productFragment

const getProductsQuery = `
query getProducts($first: Int!, $after: String) {
  products(first: $first, after: $after, sortKey: TITLE) {
    edges { node { ...product } }
    pageInfo { hasNextPage endCursor }
  }
}` + productFragment

const searchProductsQuery = `
query searchProducts($first: Int!, $query: String!) {
  products(first: $first, query: $query, sortKey: RELEVANCE) {
    edges { node { ...product } }
    pageInfo { hasNextPage endCursor }
  }
}` + productFragment

const getCartQuery = `
query getCart($cartId: ID!) {
  cart(id: $cartId) { ...cart }
}` + cartFragment

const createCartMutation = `
mutation createCart($lineItems: [CartLineInput!]) {
  cartCreate(input: { lines: $lineItems }) {
    cart { ...cart }
    ` + userErrorFields + `
  }
}` + cartFragment

const addToCartMutation = `
mutation addToCart($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...cart }
    ` + userErrorFields + `
  }
}` + cartFragment

const editCartItemsMutation = `
mutation editCartItems($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...cart }
    ` + userErrorFields + `
  }
}` + cartFragment

const removeFromCartMutation = `
mutation removeFromCart($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...cart }
    ` + userErrorFields + `
  }
}` + cartFragment
